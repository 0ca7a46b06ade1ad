// Package schedule: постановка занятий с проверкой недельного лимита часов учителя.
package schedule

import "time"

// WeekStart возвращает понедельник 00:00 недели момента t в часовом поясе loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // пн=0 … вс=6
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// WeekBounds: пара границ [from, to) ISO-недели момента t.
// Конец считается через календарные сутки, поэтому неделя с переходом на летнее время тоже корректна.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	from := WeekStart(t, loc)
	return from, from.AddDate(0, 0, 7)
}

func inWeek(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
