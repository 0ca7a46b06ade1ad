package users

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/access"
	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }

func TestService_CreateAndMaxHours(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore(), zap.NewNop())

	coord, err := svc.Create(ctx, NewUser{Name: "Coordinator", Role: models.Coordinator})
	if err != nil {
		t.Fatal(err)
	}
	teacher, err := svc.Create(ctx, NewUser{Name: "Teacher", Role: models.Teacher, MaxHoursPerWeek: ptrFloat(10), CoordinatorID: &coord.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !teacher.IsActive || teacher.MaxHoursPerWeek == nil || *teacher.MaxHoursPerWeek != 10 {
		t.Fatalf("неожиданный учитель: %+v", teacher)
	}

	t.Run("bad_role", func(t *testing.T) {
		if _, err := svc.Create(ctx, NewUser{Name: "X", Role: "janitor"}); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("ожидали ErrInvalidInput, получили %v", err)
		}
	})
	t.Run("coordinator_must_be_coordinator", func(t *testing.T) {
		if _, err := svc.Create(ctx, NewUser{Name: "S", Role: models.Student, CoordinatorID: &teacher.ID}); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("ожидали ErrInvalidInput, получили %v", err)
		}
	})
	t.Run("negative_hours", func(t *testing.T) {
		if _, err := svc.SetMaxHours(ctx, teacher.ID, ptrFloat(-1)); !errors.Is(err, apperr.ErrInvalidRange) {
			t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
		}
	})
	t.Run("unlimited", func(t *testing.T) {
		u, err := svc.SetMaxHours(ctx, teacher.ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if u.MaxHoursPerWeek != nil {
			t.Fatalf("ожидали снятие лимита, получили %v", *u.MaxHoursPerWeek)
		}
	})
	t.Run("coordinator_scope", func(t *testing.T) {
		own := ctxutil.WithSession(ctx, access.Session{UserID: coord.ID, Role: models.Coordinator})
		if _, err := svc.SetMaxHours(own, teacher.ID, ptrFloat(6)); err != nil {
			t.Fatalf("координатор управляет своим учителем: %v", err)
		}
		foreign := ctxutil.WithSession(ctx, access.Session{UserID: coord.ID + 100, Role: models.Coordinator})
		if _, err := svc.SetMaxHours(foreign, teacher.ID, ptrFloat(6)); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("ожидали ErrForbidden, получили %v", err)
		}
		if _, err := svc.Create(own, NewUser{Name: "Y", Role: models.Student}); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("создавать пользователей может только админ: %v", err)
		}
	})
	t.Run("not_found", func(t *testing.T) {
		if _, err := svc.Get(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("ожидали ErrNotFound, получили %v", err)
		}
	})
}

func TestService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore(), zap.NewNop())

	first, created, err := svc.EnsureAdmin(ctx, "Root")
	if err != nil {
		t.Fatal(err)
	}
	if !created || first.Role != models.Admin || first.Name != "Root" {
		t.Fatalf("первый запуск: %+v created=%v", first, created)
	}
	again, created, err := svc.EnsureAdmin(ctx, "Other")
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("повторный запуск не должен заводить второго админа: %+v", again)
	}
}
