package schedule

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

type Candidate struct {
	StartsAt        time.Time
	DurationMinutes int
}

type Result struct {
	Allowed        bool    `json:"allowed"`
	CurrentHours   float64 `json:"currentHours"`
	ProjectedHours float64 `json:"projectedHours"`
}

// Validator решает, уложится ли новое занятие в недельный лимит учителя.
// Пересечения занятий по времени не проверяются.
type Validator struct {
	Location *time.Location
}

// Validate: при maxHours == nil лимита нет. Занятия из других недель отбрасываются,
// даже если вызывающий их передал. Ровно на лимите разрешено.
func (v Validator) Validate(maxHours *float64, existing []models.ScheduledClass, c Candidate) (Result, error) {
	if c.DurationMinutes <= 0 {
		return Result{}, apperr.Wrap(apperr.ErrInvalidInput, "durationMinutes must be > 0, got %d", c.DurationMinutes)
	}
	if c.StartsAt.IsZero() {
		return Result{}, apperr.Wrap(apperr.ErrInvalidInput, "startsAt is required")
	}
	if maxHours != nil && (math.IsNaN(*maxHours) || math.IsInf(*maxHours, 0) || *maxHours < 0) {
		return Result{}, apperr.Wrap(apperr.ErrInvalidInput, "maxHoursPerWeek must be a non-negative number")
	}

	from, to := WeekBounds(c.StartsAt, v.Location)
	current := weekMinutes(existing, from, to)
	projected := current + c.DurationMinutes

	res := Result{
		CurrentHours:   minutesToHours(current),
		ProjectedHours: minutesToHours(projected),
	}
	if maxHours == nil {
		res.Allowed = true
		return res, nil
	}
	res.Allowed = withinCap(projected, *maxHours)
	return res, nil
}

// weekMinutes: сумма длительностей недели в целых минутах.
func weekMinutes(classes []models.ScheduledClass, from, to time.Time) int {
	total := 0
	for _, cl := range classes {
		if inWeek(cl.StartsAt, from, to) {
			total += cl.DurationMinutes
		}
	}
	return total
}

func minutesToHours(m int) float64 { return float64(m) / 60 }

// withinCap: лимит переводится в минуты в десятичной арифметике,
// иначе 4.1*60 даёт 245.99999999999997 и отсекает ровно 246 минут.
func withinCap(minutes int, maxHours float64) bool {
	capMinutes := decimal.NewFromFloat(maxHours).Mul(decimal.NewFromInt(60))
	return decimal.NewFromInt(int64(minutes)).LessThanOrEqual(capMinutes)
}
