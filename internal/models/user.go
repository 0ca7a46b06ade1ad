package models

import "time"

type Role string

const (
	Admin       Role = "admin"
	Coordinator Role = "coordinator"
	Teacher     Role = "teacher"
	Student     Role = "student"
	Parent      Role = "parent"
)

func (r Role) Valid() bool {
	switch r {
	case Admin, Coordinator, Teacher, Student, Parent:
		return true
	}
	return false
}

type User struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Role            Role      `db:"role"`
	MaxHoursPerWeek *float64  `db:"max_hours_per_week"` // nil: без ограничения
	CoordinatorID   *int64    `db:"coordinator_id"`
	TelegramID      int64     `db:"telegram_id"` // 0: не привязан
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
}
