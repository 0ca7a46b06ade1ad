package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/notify"
	"github.com/Spok95/tutor-platform/internal/observability"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

const lowBalanceBatch = 100

// LowBalanceAlerts предупреждает владельцев кошельков с балансом ниже порога.
// Каждого: один раз, пока баланс снова не поднимется до порога.
type LowBalanceAlerts struct {
	Store    wallet.AlertStore
	Notifier notify.Notifier
	AdminIDs []int64
	Log      *zap.Logger
	Now      func() time.Time
}

func (j *LowBalanceAlerts) Run(ctx context.Context) error {
	// 1) Кандидаты
	low, err := j.Store.ListLowBalance(ctx, lowBalanceBatch)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}

	// 2) Отправка
	done := make([]int64, 0, len(low))
	var names []string
	for _, lb := range low {
		text := fmt.Sprintf("⚠️ %s, на балансе %s при минимуме %s. Пополните кошелёк, чтобы занятия не прерывались.",
			lb.UserName, lb.Account.Balance.StringFixed(2), lb.Account.Minimum.StringFixed(2))
		if err := j.Notifier.Notify(ctx, lb.TelegramID, "low_balance", text); err != nil {
			j.Log.Warn("low balance alert failed", zap.Int64("owner_id", lb.Account.OwnerID), zap.Error(err))
			observability.CaptureErrCtx(ctx, err)
			continue
		}
		done = append(done, lb.Account.OwnerID)
		names = append(names, lb.UserName)
	}

	// 3) Пометка
	if len(done) == 0 {
		return nil
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	if err := j.Store.MarkLowBalanceAlerted(ctx, done, now().UTC()); err != nil {
		return err
	}
	j.Log.Info("low balance alerts sent", zap.Int("count", len(done)))

	if len(j.AdminIDs) > 0 {
		summary := fmt.Sprintf("Низкий баланс у %d пользователей: %s", len(names), strings.Join(names, ", "))
		notify.Broadcast(ctx, j.Notifier, j.Log, j.AdminIDs, "low_balance_summary", summary)
	}
	return nil
}
