package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/tutor-platform/internal/access"
	"github.com/Spok95/tutor-platform/internal/models"
)

func TestSessionAndActor(t *testing.T) {
	ctx := context.Background()
	if _, ok := Session(ctx); ok || ActorID(ctx) != 0 {
		t.Fatal("пустой контекст не должен нести сессию")
	}
	ctx = WithSession(ctx, access.Session{UserID: 7, Role: models.Coordinator})
	if s, ok := Session(ctx); !ok || s.UserID != 7 || ActorID(ctx) != 7 {
		t.Fatalf("сессия: %+v %v", s, ok)
	}
}

func TestWithDBTimeout(t *testing.T) {
	ctx, cancel := WithDBTimeout(context.Background())
	defer cancel()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > DefaultDBTimeout {
		t.Fatalf("ожидали дедлайн не позже DefaultDBTimeout, получили %v", dl)
	}

	parent, cancelParent := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelParent()
	ctx, cancel = WithDBTimeout(parent)
	defer cancel()
	dl, _ = ctx.Deadline()
	if time.Until(dl) > 100*time.Millisecond {
		t.Fatalf("дедлайн родителя короче, его и берём: %v", time.Until(dl))
	}
}

func TestWithTimeout_NoLimit(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("d<=0 не ставит дедлайн")
	}
}
