//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/db"
	"github.com/Spok95/tutor-platform/internal/discount"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/schedule"
	"github.com/Spok95/tutor-platform/internal/testutil/testdb"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

func ptrFloat(v float64) *float64 { return &v }

func mustCreateUser(t *testing.T, repo *db.UserRepo, name string, role models.Role, maxHours *float64, tgID int64) models.User {
	t.Helper()
	u, err := repo.Create(context.Background(), models.User{Name: name, Role: role, MaxHoursPerWeek: maxHours, TelegramID: tgID, IsActive: true})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestWalletApply_Parallel(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	users := db.NewUserRepo(h.DB)
	repo := db.NewWalletRepo(h.DB)
	svc := wallet.NewService(repo, users, zap.NewNop())
	st := mustCreateUser(t, users, "Ученик", models.Student, nil, 0)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: st.ID, Amount: 10, Category: "topup"}); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: st.ID, Amount: -3, Category: "addClass"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	acc, err := svc.Get(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(350)) ||
		!acc.Totals.Topup.Equal(decimal.NewFromInt(500)) ||
		!acc.Totals.AddClass.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("неожиданный кошелёк: balance=%s topup=%s addClass=%s", acc.Balance, acc.Totals.Topup, acc.Totals.AddClass)
	}
	hist, err := svc.History(ctx, st.ID, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 100 {
		t.Fatalf("в истории %d записей, ожидали 100", len(hist))
	}

	if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: 999999, Amount: 1, Category: "bonus"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestLowBalance_ListAndMark(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	users := db.NewUserRepo(h.DB)
	repo := db.NewWalletRepo(h.DB)
	svc := wallet.NewService(repo, users, zap.NewNop())
	withTG := mustCreateUser(t, users, "С телеграмом", models.Student, nil, 1001)
	noTG := mustCreateUser(t, users, "Без телеграма", models.Student, nil, 0)

	for _, id := range []int64{withTG.ID, noTG.ID} {
		if _, err := svc.SetMinimum(ctx, id, 100); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: id, Amount: 20, Category: "topup"}); err != nil {
			t.Fatal(err)
		}
	}

	low, err := repo.ListLowBalance(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) != 1 || low[0].Account.OwnerID != withTG.ID || low[0].TelegramID != 1001 {
		t.Fatalf("ожидали один кошелёк с телеграмом: %+v", low)
	}
	if err := repo.MarkLowBalanceAlerted(ctx, []int64{withTG.ID}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if low, _ = repo.ListLowBalance(ctx, 100); len(low) != 0 {
		t.Fatalf("после отметки список пуст: %+v", low)
	}

	// пополнение до порога снимает отметку, новое падение снова попадёт в выборку
	if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: withTG.ID, Amount: 100, Category: "topup"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Adjust(ctx, wallet.AdjustRequest{OwnerID: withTG.ID, Amount: -50, Category: "addClass"}); err != nil {
		t.Fatal(err)
	}
	if low, _ = repo.ListLowBalance(ctx, 100); len(low) != 1 {
		t.Fatalf("ожидали повторное предупреждение: %+v", low)
	}
}

func TestSchedule_ParallelCapPostgres(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	users := db.NewUserRepo(h.DB)
	teacher := mustCreateUser(t, users, "Учитель", models.Teacher, ptrFloat(5), 0)
	svc := schedule.NewService(db.NewClassRepo(h.DB, 0), users, nil, time.UTC, zap.NewNop())

	monday := schedule.WeekStart(time.Now().AddDate(0, 0, 7), time.UTC)
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.Schedule(ctx, schedule.NewClass{
				TeacherID:       teacher.ID,
				StartsAt:        monday.Add(time.Duration(i) * 2 * time.Hour),
				DurationMinutes: 60,
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, schedule.ErrWeeklyCapExceeded):
				rejected.Add(1)
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != 5 || rejected.Load() != 5 {
		t.Fatalf("ожидали 5/5, получили %d/%d", ok.Load(), rejected.Load())
	}
	load, err := svc.WeeklyLoad(ctx, teacher.ID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if load.CurrentHours != 5 || load.Classes != 5 {
		t.Fatalf("нагрузка: %+v", load)
	}
}

func TestDiscount_UsageConstraint(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	users := db.NewUserRepo(h.DB)
	st := mustCreateUser(t, users, "Ученик", models.Student, nil, 0)
	svc := discount.NewService(db.NewDiscountRepo(h.DB), users, zap.NewNop())

	d, err := svc.Create(ctx, st.ID, 25, 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.DB.ExecContext(ctx, `UPDATE discounts SET usage_count = 4 WHERE id = $1`, d.ID); err != nil {
		t.Fatal(err)
	}
	maxUsage := 3
	if _, err := svc.Edit(ctx, d.ID, nil, &maxUsage); !errors.Is(err, apperr.ErrInvalidRange) {
		t.Fatalf("ожидали ErrInvalidRange, получили %v", err)
	}
	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}
