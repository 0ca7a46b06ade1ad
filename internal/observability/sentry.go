package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErrCtx: ошибка в Sentry с тегами запроса: request_id, op, user_id.
func CaptureErrCtx(ctx context.Context, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if id := ctxutil.RequestID(ctx); id != "" {
			scope.SetTag("request_id", id)
		}
		if op, ok := ctxutil.Op(ctx); ok {
			scope.SetTag("op", op)
		}
		if s, ok := ctxutil.Session(ctx); ok {
			scope.SetUser(sentry.User{ID: formatID(s.UserID)})
			scope.SetTag("role", string(s.Role))
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic: для recover() в фоновых горутинах.
func CapturePanic(rec any) {
	if rec == nil {
		return
	}
	sentry.CurrentHub().Recover(rec)
	sentry.Flush(2 * time.Second)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
