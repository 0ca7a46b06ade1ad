package export

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tutor-platform/internal/models"
)

const dateTimeLayout = "02.01.2006 15:04"

// WalletStatement: лист «Итоги» со снимком кошелька и лист «Движения» с историей (новые сверху).
func WalletStatement(owner models.User, acc models.WalletAccount, txs []models.WalletTransaction, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	summary := SheetSpec{
		Title:  "Итоги",
		Header: []string{"Показатель", "Значение"},
		Rows: [][]any{
			{"Владелец", owner.Name},
			{"Баланс", acc.Balance.InexactFloat64()},
			{"Минимальный баланс", acc.Minimum.InexactFloat64()},
			{"Пополнения (topup)", acc.Totals.Topup.InexactFloat64()},
			{"Бонусы (bonus)", acc.Totals.Bonus.InexactFloat64()},
			{"Бесплатные баллы (freePoints)", acc.Totals.FreePoints.InexactFloat64()},
			{"Списано за занятия (addClass)", acc.Totals.AddClass.InexactFloat64()},
			{"Возвраты (refund)", acc.Totals.Refund.InexactFloat64()},
		},
	}

	movements := SheetSpec{
		Title:  "Движения",
		Header: []string{"Дата", "Сумма", "Категория", "Комментарий", "Баланс после", "Кем", "ID"},
	}
	for _, t := range txs {
		movements.Rows = append(movements.Rows, []any{
			t.CreatedAt.In(loc).Format(dateTimeLayout),
			t.Amount.InexactFloat64(),
			string(t.Category),
			t.Reason,
			t.BalanceAfter.InexactFloat64(),
			t.CreatedBy,
			t.ID.String(),
		})
	}
	return NewWorkbook([]SheetSpec{summary, movements})
}
