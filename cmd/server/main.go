package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/config"
	"github.com/Spok95/tutor-platform/internal/db"
	"github.com/Spok95/tutor-platform/internal/discount"
	"github.com/Spok95/tutor-platform/internal/httpapi"
	"github.com/Spok95/tutor-platform/internal/jobs"
	"github.com/Spok95/tutor-platform/internal/logging"
	"github.com/Spok95/tutor-platform/internal/notify"
	"github.com/Spok95/tutor-platform/internal/observability"
	"github.com/Spok95/tutor-platform/internal/schedule"
	"github.com/Spok95/tutor-platform/internal/users"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

var version = "dev"

const tokenLifetime = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()
	defer func() {
		if rec := recover(); rec != nil {
			observability.CapturePanic(rec)
			panic(rec)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилища
	var (
		userStore     users.Store
		walletStore   wallet.Store
		discountStore discount.Store
		classStore    schedule.Store
		alertStore    wallet.AlertStore
		ping          func(context.Context) error
	)
	switch cfg.Store {
	case config.StorePostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		defer func() { _ = database.Close() }()
		if err := db.Migrate(ctx, database); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		wallets := db.NewWalletRepo(database)
		userStore = db.NewUserRepo(database)
		walletStore = wallets
		alertStore = wallets
		discountStore = db.NewDiscountRepo(database)
		classStore = db.NewClassRepo(database, cfg.LockTimeout)
		ping = pinger(database)
	case config.StoreMemory:
		logger.Warn("STORE=memory: data is lost on restart, low balance alerts are off")
		userStore = users.NewMemStore()
		walletStore = wallet.NewMemStore()
		discountStore = discount.NewMemStore()
		classStore = schedule.NewMemStore()
	}

	// Уведомления
	var notifier notify.Notifier = notify.Nop{Log: logger}
	if cfg.BotToken != "" {
		tg, err := notify.NewTelegram(cfg.BotToken, logger)
		if err != nil {
			logger.Fatal("telegram init", zap.Error(err))
		}
		notifier = tg
	}

	// Сервисы
	userSvc := users.NewService(userStore, logger)
	walletSvc := wallet.NewService(walletStore, userSvc, logger)
	discountSvc := discount.NewService(discountStore, userSvc, logger)
	scheduleSvc := schedule.NewService(classStore, userSvc, notifier, cfg.Location, logger)
	tokens := auth.NewManager(cfg.JWTSecret, tokenLifetime)

	if cfg.BootstrapAdmin != "" {
		if err := bootstrapAdmin(ctx, userSvc, tokens, cfg.BootstrapAdmin, os.Stderr, logger); err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
	}

	// Фоновые задачи
	runner := jobs.New(ctx, logger)
	if alertStore != nil {
		lowBalance := &jobs.LowBalanceAlerts{
			Store:    alertStore,
			Notifier: notifier,
			AdminIDs: cfg.AdminIDs,
			Log:      logger,
			Now:      time.Now,
		}
		runner.Every(cfg.LowBalanceEvery, "low_balance", lowBalance.Run)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Users:     userSvc,
		Wallet:    walletSvc,
		Discounts: discountSvc,
		Schedule:  scheduleSvc,
		Tokens:    tokens,
		Ping:      ping,
		Location:  cfg.Location,
		Log:       logger,
	})
	srv := httpapi.Start(ctx, cfg.HTTPAddr, router, logger)

	logger.Info("service started",
		zap.String("version", version),
		zap.String("store", string(cfg.Store)),
		zap.String("tz", cfg.Location.String()),
		zap.Bool("telegram", cfg.BotToken != ""),
	)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-srv.Err():
		logger.Error("http server failed", zap.Error(serveErr))
		observability.CaptureErrCtx(ctx, serveErr)
		stop()
	}
	srv.Wait()
	runner.Wait()
	if serveErr != nil {
		flush()
		os.Exit(1)
	}
}

func pinger(database *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error { return db.Ping(ctx, database) }
}

// bootstrapAdmin заводит первого администратора. Токен печатается один раз в out,
// в структурный лог он не попадает.
func bootstrapAdmin(ctx context.Context, svc *users.Service, tokens *auth.Manager, name string, out io.Writer, logger *zap.Logger) error {
	admin, created, err := svc.EnsureAdmin(ctx, name)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if !created {
		return nil
	}
	tok, err := tokens.Issue(admin.ID, admin.Role)
	if err != nil {
		return fmt.Errorf("bootstrap admin token: %w", err)
	}
	logger.Info("bootstrap admin created", zap.Int64("id", admin.ID))
	_, err = fmt.Fprintf(out, "bootstrap admin %d token: %s\n", admin.ID, tok)
	return err
}
