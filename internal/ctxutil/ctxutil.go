package ctxutil

import (
	"context"
	"time"

	"github.com/Spok95/tutor-platform/internal/access"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keySession key = iota
	keyOpName
	keyRequestID
)

// WithSession/Session: сессия текущего пользователя запроса.
func WithSession(ctx context.Context, s access.Session) context.Context {
	return context.WithValue(ctx, keySession, s)
}

func Session(ctx context.Context) (access.Session, bool) {
	s, ok := ctx.Value(keySession).(access.Session)
	return s, ok
}

// ActorID: id пользователя, выполняющего операцию (0, если сессии нет: джобы, CLI).
func ActorID(ctx context.Context) int64 {
	if s, ok := Session(ctx); ok {
		return s.UserID
	}
	return 0
}

// WithOp/Op: имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keyOpName).(string)
	return s, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(keyRequestID).(string)
	return s
}

var (
	DefaultDBTimeout = 5 * time.Second
)

// WithTimeout: обёртка над context.WithTimeout; при d<=0 без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout: стандартный таймаут для БД.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		// если у родителя осталось меньше DefaultDBTimeout: берем остаток
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
