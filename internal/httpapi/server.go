// Package httpapi: REST-интерфейс поверх сервисов ядра.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/discount"
	"github.com/Spok95/tutor-platform/internal/metrics"
	"github.com/Spok95/tutor-platform/internal/schedule"
	"github.com/Spok95/tutor-platform/internal/users"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

type Deps struct {
	Users     *users.Service
	Wallet    *wallet.Service
	Discounts *discount.Service
	Schedule  *schedule.Service
	Tokens    *auth.Manager
	// Ping: проверка хранилища для /healthz; при nil всегда ок.
	Ping     func(ctx context.Context) error
	Location *time.Location
	Log      *zap.Logger
}

type API struct {
	users     *users.Service
	wallet    *wallet.Service
	discounts *discount.Service
	schedule  *schedule.Service
	tokens    *auth.Manager
	ping      func(ctx context.Context) error
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewRouter(d Deps) http.Handler {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	a := &API{
		users:     d.Users,
		wallet:    d.Wallet,
		discounts: d.Discounts,
		schedule:  d.Schedule,
		tokens:    d.Tokens,
		ping:      d.Ping,
		loc:       loc,
		log:       d.Log,
		now:       time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, requestContext, a.accessLog, middleware.Recoverer)

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", op("users.create", a.createUser))
			r.Get("/{id}", op("users.get", a.getUser))
			r.Patch("/{id}/max-hours", op("users.set_max_hours", a.setMaxHours))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Patch("/add-points", op("wallet.adjust", a.addPoints))
			r.Patch("/set-minimum", op("wallet.set_minimum", a.setMinimum))
			r.Get("/{id}", op("wallet.get", a.getWallet))
			r.Get("/{id}/transactions", op("wallet.history", a.walletHistory))
			r.Get("/{id}/statement.xlsx", op("wallet.statement", a.walletStatement))
		})

		r.Route("/discount", func(r chi.Router) {
			r.Post("/create", op("discount.create", a.createDiscount))
			r.Patch("/edit/{id}", op("discount.edit", a.editDiscount))
			r.Get("/user/{userId}", op("discount.list", a.listDiscounts))
			r.Get("/{id}", op("discount.get", a.getDiscount))
			r.Delete("/{id}", op("discount.delete", a.deleteDiscount))
		})

		r.Route("/classes", func(r chi.Router) {
			r.Post("/", op("classes.schedule", a.scheduleClass))
			r.Get("/", op("classes.list", a.listClasses))
			r.Get("/weekly-load", op("classes.weekly_load", a.weeklyLoad))
			r.Get("/weekly-load.xlsx", op("classes.weekly_load_export", a.weeklyLoadExport))
			r.Delete("/{id}", op("classes.cancel", a.cancelClass))
		})
	})
	return r
}

const healthzTimeout = 800 * time.Millisecond

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		ctx, cancel := ctxutil.WithTimeout(r.Context(), healthzTimeout)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}

type Server struct {
	srv  *http.Server
	done chan struct{}
	errc chan error
}

// Start поднимает сервер и гасит его при отмене ctx.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *Server {
	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		done: make(chan struct{}),
		errc: make(chan error, 1),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errc <- err
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}()
	return s
}

// Wait возвращается, когда сервер остановлен.
func (s *Server) Wait() { <-s.done }

// Err отдаёт ошибку, с которой сервер перестал принимать соединения (например, занят порт).
func (s *Server) Err() <-chan error { return s.errc }
