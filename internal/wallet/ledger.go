// Package wallet: кошелёк пользователя (баланс, минимальный порог и накопительные итоги по категориям).
//
// Баланс: знаковая сумма всех применённых корректировок (может уйти в минус).
// Итоги по категориям копят модуль суммы: списание за занятие (addClass) уменьшает баланс,
// но увеличивает totals.addClass. Знак в итогах по имени категории не выводится.
package wallet

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

// Delta: одна проверенная корректировка, готовая к атомарному применению хранилищем.
type Delta struct {
	ID        uuid.UUID
	OwnerID   int64
	Amount    decimal.Decimal // со знаком
	Category  models.Category
	Reason    string
	CreatedBy int64
	At        time.Time
}

// ParseCategory приводит строку из запроса к категории.
// Нераспознанный текст становится other, а сам текст возвращается как причина.
func ParseCategory(s string) (models.Category, string) {
	c := models.Category(strings.TrimSpace(s))
	if c.Bucketed() || c == models.CategoryOther {
		return c, ""
	}
	if c == "" {
		return models.CategoryOther, ""
	}
	return models.CategoryOther, string(c)
}

// amountScale: знаков после запятой в NUMERIC(20,4).
const amountScale = 4

// checkAmount: не число, бесконечность, ноль и больше amountScale знаков отклоняются.
func checkAmount(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "amount must be a finite number")
	}
	if v == 0 {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "amount must not be zero")
	}
	d := decimal.NewFromFloat(v)
	if d.Exponent() < -amountScale {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "amount must have at most %d decimal places, got %s", amountScale, d)
	}
	return d, nil
}

func checkMinimum(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "minBalance must be a finite number")
	}
	if v < 0 {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "minBalance must be >= 0")
	}
	d := decimal.NewFromFloat(v)
	if d.Exponent() < -amountScale {
		return decimal.Zero, apperr.Wrap(apperr.ErrInvalidAmount, "minBalance must have at most %d decimal places, got %s", amountScale, d)
	}
	return d, nil
}

// ApplyDelta: арифметика одной корректировки. Хранилище вызывает её под блокировкой владельца.
func ApplyDelta(acc *models.WalletAccount, d Delta) {
	acc.Balance = acc.Balance.Add(d.Amount)
	if b := bucket(&acc.Totals, d.Category); b != nil {
		*b = b.Add(d.Amount.Abs())
	}
	acc.UpdatedAt = d.At
}

func bucket(t *models.Totals, c models.Category) *decimal.Decimal {
	switch c {
	case models.CategoryTopup:
		return &t.Topup
	case models.CategoryBonus:
		return &t.Bonus
	case models.CategoryFreePoints:
		return &t.FreePoints
	case models.CategoryAddClass:
		return &t.AddClass
	case models.CategoryRefund:
		return &t.Refund
	}
	return nil
}

// BucketColumn: колонка итогов в таблице wallets ("" для other).
func BucketColumn(c models.Category) string {
	switch c {
	case models.CategoryTopup:
		return "total_topup"
	case models.CategoryBonus:
		return "total_bonus"
	case models.CategoryFreePoints:
		return "total_free_points"
	case models.CategoryAddClass:
		return "total_add_class"
	case models.CategoryRefund:
		return "total_refund"
	}
	return ""
}
