package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Spok95/tutor-platform/internal/apperr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no_rows", sql.ErrNoRows, apperr.ErrNotFound},
		{"pgx_lock_timeout", &pgconn.PgError{Code: "55P03"}, apperr.ErrConcurrencyConflict},
		{"pgx_serialization", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}), apperr.ErrConcurrencyConflict},
		{"pgx_fk", &pgconn.PgError{Code: "23503"}, apperr.ErrNotFound},
		{"pq_check", &pq.Error{Code: "23514"}, apperr.ErrInvalidRange},
		{"pq_deadlock", &pq.Error{Code: "40P01"}, apperr.ErrConcurrencyConflict},
		{"pq_unique", &pq.Error{Code: "23505"}, apperr.ErrInvalidInput},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classify(c.err, "op"); !errors.Is(got, c.want) {
				t.Fatalf("classify(%v) = %v, ожидали %v", c.err, got, c.want)
			}
		})
	}

	t.Run("passthrough", func(t *testing.T) {
		base := errors.New("boom")
		got := classify(base, "op")
		if !errors.Is(got, base) || apperr.IsClient(got) {
			t.Fatalf("неизвестная ошибка должна остаться серверной: %v", got)
		}
		if classify(nil, "op") != nil {
			t.Fatal("nil должен остаться nil")
		}
	})
}
