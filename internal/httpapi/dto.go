package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/schedule"
)

type userResponse struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Role            models.Role `json:"role"`
	MaxHoursPerWeek *float64    `json:"maxHoursPerWeek"`
	CoordinatorID   *int64      `json:"coordinatorId"`
	TelegramID      int64       `json:"telegramId,omitempty"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
}

func toUser(u models.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Name:            u.Name,
		Role:            u.Role,
		MaxHoursPerWeek: u.MaxHoursPerWeek,
		CoordinatorID:   u.CoordinatorID,
		TelegramID:      u.TelegramID,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
	}
}

type totalsResponse struct {
	Topup      float64 `json:"topup"`
	Bonus      float64 `json:"bonus"`
	FreePoints float64 `json:"freePoints"`
	AddClass   float64 `json:"addClass"`
	Refund     float64 `json:"refund"`
}

type walletResponse struct {
	OwnerID      int64          `json:"ownerId"`
	Balance      float64        `json:"balance"`
	Minimum      float64        `json:"minimum"`
	Totals       totalsResponse `json:"totals"`
	BelowMinimum bool           `json:"belowMinimum"`
	UpdatedAt    *time.Time     `json:"updatedAt,omitempty"`
}

func toWallet(a models.WalletAccount) walletResponse {
	out := walletResponse{
		OwnerID: a.OwnerID,
		Balance: a.Balance.InexactFloat64(),
		Minimum: a.Minimum.InexactFloat64(),
		Totals: totalsResponse{
			Topup:      a.Totals.Topup.InexactFloat64(),
			Bonus:      a.Totals.Bonus.InexactFloat64(),
			FreePoints: a.Totals.FreePoints.InexactFloat64(),
			AddClass:   a.Totals.AddClass.InexactFloat64(),
			Refund:     a.Totals.Refund.InexactFloat64(),
		},
		BelowMinimum: a.BelowMinimum(),
	}
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

type transactionResponse struct {
	ID           string          `json:"id"`
	Amount       float64         `json:"amount"`
	Category     models.Category `json:"category"`
	Reason       string          `json:"reason,omitempty"`
	BalanceAfter float64         `json:"balanceAfter"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toTransactions(txs []models.WalletTransaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{
			ID:           t.ID.String(),
			Amount:       t.Amount.InexactFloat64(),
			Category:     t.Category,
			Reason:       t.Reason,
			BalanceAfter: t.BalanceAfter.InexactFloat64(),
			CreatedBy:    t.CreatedBy,
			CreatedAt:    t.CreatedAt,
		})
	}
	return out
}

type classResponse struct {
	ID              int64     `json:"id"`
	TeacherID       int64     `json:"teacherId"`
	StudentID       *int64    `json:"studentId"`
	Title           string    `json:"title,omitempty"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedBy       int64     `json:"createdBy"`
}

func toClass(c models.ScheduledClass, loc *time.Location) classResponse {
	return classResponse{
		ID:              c.ID,
		TeacherID:       c.TeacherID,
		StudentID:       c.StudentID,
		Title:           c.Title,
		StartsAt:        c.StartsAt.In(loc),
		EndsAt:          c.EndsAt().In(loc),
		DurationMinutes: c.DurationMinutes,
		CreatedBy:       c.CreatedBy,
	}
}

type scheduleResponse struct {
	Class classResponse   `json:"class"`
	Week  schedule.Result `json:"week"`
}

// pathID: положительный int64 из параметра маршрута.
func pathID(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperr.Wrap(apperr.ErrInvalidInput, "%s must be a positive integer", name)
	}
	return v, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "%s must be a positive integer", name)
	}
	return &v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, apperr.Wrap(apperr.ErrInvalidInput, "%s must be a non-negative integer", name)
	}
	return v, nil
}

// queryTime принимает RFC3339 или дату YYYY-MM-DD (полночь в поясе loc).
func queryTime(r *http.Request, name string, loc *time.Location) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	return parseTime(s, name, loc)
}

func parseTime(s, name string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Wrap(apperr.ErrInvalidInput, "%s must be RFC3339 or YYYY-MM-DD", name)
}
