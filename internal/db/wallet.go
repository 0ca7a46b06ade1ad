package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

const walletCols = `owner_id, balance, min_balance, total_topup, total_bonus, total_free_points, total_add_class, total_refund, updated_at`

type WalletRepo struct {
	db *sql.DB
}

func NewWalletRepo(database *sql.DB) *WalletRepo {
	return &WalletRepo{db: database}
}

func scanWallet(row rowScanner) (models.WalletAccount, error) {
	var a models.WalletAccount
	err := row.Scan(&a.OwnerID, &a.Balance, &a.Minimum,
		&a.Totals.Topup, &a.Totals.Bonus, &a.Totals.FreePoints, &a.Totals.AddClass, &a.Totals.Refund,
		&a.UpdatedAt)
	return a, err
}

// Apply в одной транзакции: создать кошелёк при отсутствии, изменить баланс и итог
// категории одним UPDATE (строка блокируется до коммита), записать движение в историю.
func (r *WalletRepo) Apply(ctx context.Context, d wallet.Delta) (models.WalletAccount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return models.WalletAccount{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO wallets (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING`, d.OwnerID); err != nil {
		return models.WalletAccount{}, classify(err, "wallet")
	}

	set := ""
	args := []any{d.OwnerID, d.Amount, d.At}
	if col := wallet.BucketColumn(d.Category); col != "" {
		set = fmt.Sprintf(", %s = %s + $4", col, col)
		args = append(args, d.Amount.Abs())
	}
	acc, err := scanWallet(tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $2,
		    low_balance_alerted_at = CASE WHEN balance + $2 >= min_balance THEN NULL ELSE low_balance_alerted_at END,
		    updated_at = $3`+set+`
		WHERE owner_id = $1
		RETURNING `+walletCols, args...))
	if err != nil {
		return models.WalletAccount{}, classify(err, "apply wallet delta")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, owner_id, amount, category, reason, balance_after, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.OwnerID, d.Amount, string(d.Category), d.Reason, acc.Balance, d.CreatedBy, d.At); err != nil {
		return models.WalletAccount{}, classify(err, "wallet transaction")
	}

	if err := tx.Commit(); err != nil {
		return models.WalletAccount{}, classify(err, "commit wallet delta")
	}
	return acc, nil
}

func (r *WalletRepo) SetMinimum(ctx context.Context, ownerID int64, min decimal.Decimal) (models.WalletAccount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	acc, err := scanWallet(r.db.QueryRowContext(ctx, `
		INSERT INTO wallets (owner_id, min_balance) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE
		SET min_balance = EXCLUDED.min_balance,
		    low_balance_alerted_at = NULL,
		    updated_at = now()
		RETURNING `+walletCols, ownerID, min))
	if err != nil {
		return models.WalletAccount{}, classify(err, "set wallet minimum")
	}
	return acc, nil
}

func (r *WalletRepo) Get(ctx context.Context, ownerID int64) (models.WalletAccount, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	acc, err := scanWallet(r.db.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE owner_id = $1`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WalletAccount{}, false, nil
	}
	if err != nil {
		return models.WalletAccount{}, false, classify(err, "wallet")
	}
	return acc, true, nil
}

func (r *WalletRepo) History(ctx context.Context, ownerID int64, limit int) ([]models.WalletTransaction, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, amount, category, reason, balance_after, created_by, created_at
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, classify(err, "wallet history")
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.WalletTransaction, 0, limit)
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Amount, &t.Category, &t.Reason, &t.BalanceAfter, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListLowBalance: активные пользователи с Telegram, чей баланс ниже порога и кто ещё не предупреждён.
func (r *WalletRepo) ListLowBalance(ctx context.Context, limit int) ([]wallet.LowBalance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT w.owner_id, w.balance, w.min_balance, w.total_topup, w.total_bonus, w.total_free_points,
		       w.total_add_class, w.total_refund, w.updated_at, u.name, u.telegram_id
		FROM wallets w
		JOIN users u ON u.id = w.owner_id
		WHERE w.balance < w.min_balance
		  AND w.low_balance_alerted_at IS NULL
		  AND u.is_active AND u.telegram_id <> 0
		ORDER BY w.owner_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(err, "low balance wallets")
	}
	defer func() { _ = rows.Close() }()

	var out []wallet.LowBalance
	for rows.Next() {
		var lb wallet.LowBalance
		a := &lb.Account
		if err := rows.Scan(&a.OwnerID, &a.Balance, &a.Minimum,
			&a.Totals.Topup, &a.Totals.Bonus, &a.Totals.FreePoints, &a.Totals.AddClass, &a.Totals.Refund,
			&a.UpdatedAt, &lb.UserName, &lb.TelegramID); err != nil {
			return nil, err
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}

func (r *WalletRepo) MarkLowBalanceAlerted(ctx context.Context, ownerIDs []int64, at time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if len(ownerIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE wallets SET low_balance_alerted_at = $1
		WHERE owner_id = ANY($2)
	`, at, pq.Array(ownerIDs))
	return classify(err, "mark low balance alerted")
}
