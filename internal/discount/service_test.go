package discount

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

type fakeUsers map[int64]models.User

func (f fakeUsers) Get(_ context.Context, id int64) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, apperr.Wrap(apperr.ErrNotFound, "user %d", id)
	}
	return u, nil
}

func newTestService() (*Service, *MemStore) {
	store := NewMemStore()
	users := fakeUsers{
		10: {ID: 10, Role: models.Student},
		20: {ID: 20, Role: models.Teacher},
	}
	return NewService(store, users, zap.NewNop()), store
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("percent_above_100", func(t *testing.T) {
		if _, err := svc.Create(ctx, 10, 150, 1); !errors.Is(err, apperr.ErrInvalidRange) {
			t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
		}
	})
	t.Run("negative_percent", func(t *testing.T) {
		if _, err := svc.Create(ctx, 10, -0.5, 1); !errors.Is(err, apperr.ErrInvalidRange) {
			t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
		}
	})
	t.Run("zero_usage", func(t *testing.T) {
		if _, err := svc.Create(ctx, 10, 50, 0); !errors.Is(err, apperr.ErrInvalidRange) {
			t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
		}
	})
	t.Run("bounds_inclusive", func(t *testing.T) {
		for _, p := range []float64{0, 100} {
			if _, err := svc.Create(ctx, 10, p, 1); err != nil {
				t.Fatalf("percent=%v должен быть допустим: %v", p, err)
			}
		}
	})
	t.Run("ok", func(t *testing.T) {
		d, err := svc.Create(ctx, 10, 50, 1)
		if err != nil {
			t.Fatal(err)
		}
		if d.UsageCount != 0 || d.Percent != 50 || d.MaxUsage != 1 || d.ID == 0 {
			t.Fatalf("неожиданная скидка: %+v", d)
		}
	})
	t.Run("unknown_user", func(t *testing.T) {
		if _, err := svc.Create(ctx, 99, 50, 1); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("ожидали ErrNotFound, получили %v", err)
		}
	})
	t.Run("not_a_student", func(t *testing.T) {
		if _, err := svc.Create(ctx, 20, 50, 1); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("ожидали ErrInvalidInput, получили %v", err)
		}
	})
}

func TestEdit_Partial(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, 10, 20, 5)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Edit(ctx, d.ID, ptrFloat(35), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Percent != 35 || got.MaxUsage != 5 {
		t.Fatalf("ожидали percent=35 maxUsage=5, получили %+v", got)
	}

	if _, err := svc.Edit(ctx, d.ID, nil, ptrInt(0)); !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
	}
	if _, err := svc.Edit(ctx, d.ID, ptrFloat(101), nil); !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
	}

	// usageCount <= maxUsage: нельзя опустить лимит ниже уже сделанных использований
	store.mu.Lock()
	cur := store.byID[d.ID]
	cur.UsageCount = 3
	store.byID[d.ID] = cur
	store.mu.Unlock()
	if _, err := svc.Edit(ctx, d.ID, nil, ptrInt(2)); !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
	}
	if got, err := svc.Edit(ctx, d.ID, nil, ptrInt(3)); err != nil || got.MaxUsage != 3 {
		t.Fatalf("лимит, равный использованиям, допустим: %+v %v", got, err)
	}

	if _, err := svc.Edit(ctx, 999, ptrFloat(10), nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.Create(ctx, 10, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, 10, 15, 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("повторное удаление: ожидали ErrNotFound, получили %v", err)
	}
	list, err := svc.ListByUser(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Percent != 15 {
		t.Fatalf("ожидали одну оставшуюся скидку, получили %+v", list)
	}
}
