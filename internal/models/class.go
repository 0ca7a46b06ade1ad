package models

import "time"

type ScheduledClass struct {
	ID              int64     `db:"id"`
	TeacherID       int64     `db:"teacher_id"`
	StudentID       *int64    `db:"student_id"`
	Title           string    `db:"title"`
	StartsAt        time.Time `db:"starts_at"`
	DurationMinutes int       `db:"duration_minutes"`
	CreatedBy       int64     `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
}

func (c ScheduledClass) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}
