package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/access"
	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/metrics"
)

// requestContext переносит id запроса из chi в ctxutil, чтобы его видели логи и Sentry.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxutil.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog: метод, путь, статус, длительность; та же длительность идёт в гистограмму по шаблону маршрута.
func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		d := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(d.Seconds())
		a.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", d),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// authenticate: Bearer JWT → пользователь перечитывается из справочника, должен быть активен.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: auth.ErrInvalidToken.Error()})
			return
		}
		u, err := a.users.Get(r.Context(), claims.UserID)
		if err != nil {
			if statusOf(err) == http.StatusNotFound {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unknown user"})
				return
			}
			a.fail(w, r, err)
			return
		}
		if !u.IsActive {
			a.fail(w, r, apperr.Wrap(apperr.ErrForbidden, "user %d is deactivated", u.ID))
			return
		}
		ctx := ctxutil.WithSession(r.Context(), access.SessionFor(u))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// op помечает контекст именем операции для логов и Sentry.
func op(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(ctxutil.WithOp(r.Context(), name)))
	}
}
