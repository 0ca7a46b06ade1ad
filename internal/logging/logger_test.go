package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Spok95/tutor-platform/internal/access"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	l, err := Init("loud", "dev")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("ожидали info, получили %v", l.Level.Level())
	}
}

func TestWith_AddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := ctxutil.WithRequestID(context.Background(), "req-1")
	ctx = ctxutil.WithOp(ctx, "wallet.adjust")
	ctx = ctxutil.WithSession(ctx, access.Session{UserID: 7, Role: models.Admin})

	With(base, ctx).Info("hello")
	With(base, context.Background()).Info("bare")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("ожидали 2 записи, получили %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["op"] != "wallet.adjust" || fields["user_id"] != int64(7) {
		t.Fatalf("неожиданные поля: %v", fields)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("без контекста полей быть не должно: %v", entries[1].Context)
	}
}
