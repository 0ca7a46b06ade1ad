package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Store string

const (
	StorePostgres Store = "postgres"
	StoreMemory   Store = "memory"
)

type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	Env             string // dev|prod
	SentryDSN       string
	Location        *time.Location
	JWTSecret       string
	BotToken        string  // пусто: уведомления в Telegram отключены
	AdminIDs        []int64 // чаты для служебных оповещений
	Store           Store
	LowBalanceEvery time.Duration
	LockTimeout     time.Duration
	// BootstrapAdmin: имя администратора, который создаётся при старте, если админов ещё нет.
	BootstrapAdmin  string
}

// Load читает окружение; .env подхватывается, если лежит рядом.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	every, err := parseDuration("LOW_BALANCE_EVERY", "15m")
	if err != nil {
		return nil, err
	}
	lockTimeout, err := parseDuration("LOCK_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Env:             getenv("ENV", "dev"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Location:        loc,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		BotToken:        os.Getenv("BOT_TOKEN"),
		AdminIDs:        adminIDs,
		Store:           Store(strings.ToLower(getenv("STORE", string(StorePostgres)))),
		LowBalanceEvery: every,
		LockTimeout:     lockTimeout,
		BootstrapAdmin:  strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE: unknown value %q", c.Store)
	}
	if c.JWTSecret == "" {
		if strings.ToLower(c.Env) == "prod" {
			return fmt.Errorf("JWT_SECRET is required in prod")
		}
		c.JWTSecret = "dev-secret"
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseDuration(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(k, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", k)
	}
	return d, nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
