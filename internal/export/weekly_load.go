package export

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/tutor-platform/internal/schedule"
)

func WeeklyLoad(loads []schedule.TeacherLoad, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	sheet := SheetSpec{
		Title:  "Нагрузка",
		Header: []string{"Учитель", "Неделя с", "Неделя по", "Занятий", "Часов", "Лимит, ч", "Превышение"},
	}
	for _, l := range loads {
		var limit any = "без лимита"
		if l.MaxHoursPerWeek != nil {
			limit = *l.MaxHoursPerWeek
		}
		over := ""
		if l.OverCap {
			over = "да"
		}
		sheet.Rows = append(sheet.Rows, []any{
			l.TeacherName,
			l.WeekStart.In(loc).Format("02.01.2006"),
			l.WeekEnd.In(loc).AddDate(0, 0, -1).Format("02.01.2006"),
			l.Classes,
			l.CurrentHours,
			limit,
			over,
		})
	}
	return NewWorkbook([]SheetSpec{sheet})
}
