package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category: статья движения по кошельку.
type Category string

const (
	CategoryTopup      Category = "topup"
	CategoryBonus      Category = "bonus"
	CategoryFreePoints Category = "freePoints"
	CategoryAddClass   Category = "addClass" // списание за занятие
	CategoryRefund     Category = "refund"
	CategoryOther      Category = "other"
)

// Bucketed: категория суммируется в totals; other пишется только в историю.
func (c Category) Bucketed() bool {
	switch c {
	case CategoryTopup, CategoryBonus, CategoryFreePoints, CategoryAddClass, CategoryRefund:
		return true
	}
	return false
}

// Totals хранит модули сумм по категориям, независимо от знака движения.
type Totals struct {
	Topup      decimal.Decimal `db:"total_topup"`
	Bonus      decimal.Decimal `db:"total_bonus"`
	FreePoints decimal.Decimal `db:"total_free_points"`
	AddClass   decimal.Decimal `db:"total_add_class"`
	Refund     decimal.Decimal `db:"total_refund"`
}

type WalletAccount struct {
	OwnerID   int64           `db:"owner_id"`
	Balance   decimal.Decimal `db:"balance"`
	Minimum   decimal.Decimal `db:"minimum"`
	Totals    Totals
	UpdatedAt time.Time `db:"updated_at"`
}

// BelowMinimum: только для предупреждений, на уровне леджера не применяется.
func (a WalletAccount) BelowMinimum() bool {
	return a.Balance.LessThan(a.Minimum)
}

type WalletTransaction struct {
	ID           uuid.UUID       `db:"id"`
	OwnerID      int64           `db:"owner_id"`
	Amount       decimal.Decimal `db:"amount"`
	Category     Category        `db:"category"`
	Reason       string          `db:"reason"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	CreatedBy    int64           `db:"created_by"`
	CreatedAt    time.Time       `db:"created_at"`
}
