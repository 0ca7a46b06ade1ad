package wallet

import (
	"context"
	"time"

	"github.com/Spok95/tutor-platform/internal/models"
)

// LowBalance: кошелёк ниже порога, о котором владельца ещё не предупреждали.
type LowBalance struct {
	Account    models.WalletAccount
	UserName   string
	TelegramID int64
}

// AlertStore: выборка для джобы предупреждений. Отметка сбрасывается,
// когда баланс снова поднимается до порога.
type AlertStore interface {
	ListLowBalance(ctx context.Context, limit int) ([]LowBalance, error)
	MarkLowBalanceAlerted(ctx context.Context, ownerIDs []int64, at time.Time) error
}
