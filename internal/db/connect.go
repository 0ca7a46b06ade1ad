package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/metrics"
)

// Open подключается к Postgres через драйвер pgx и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	database.SetMaxOpenConns(20)
	database.SetMaxIdleConns(10)
	database.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := Ping(pingCtx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return database, nil
}

// Ping с замером задержки в метрику db_ping_seconds.
func Ping(ctx context.Context, database *sql.DB) error {
	start := time.Now()
	err := database.PingContext(ctx)
	metrics.ObserveDBPing(time.Since(start))
	return err
}
