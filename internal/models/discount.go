package models

import "time"

type Discount struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Percent    float64   `db:"percent"`
	MaxUsage   int       `db:"max_usage"`
	UsageCount int       `db:"usage_count"`
	CreatedBy  int64     `db:"created_by"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
