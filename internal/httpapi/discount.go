package httpapi

import (
	"net/http"
	"time"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

type discountResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Percent    float64   `json:"percent"`
	MaxUsage   int       `json:"maxUsage"`
	UsageCount int       `json:"usageCount"`
	CreatedBy  int64     `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toDiscount(d models.Discount) discountResponse {
	return discountResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		Percent:    d.Percent,
		MaxUsage:   d.MaxUsage,
		UsageCount: d.UsageCount,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Диапазоны percent и maxUsage проверяет сервис: ошибка должна быть InvalidRange.
type createDiscountRequest struct {
	UserID   int64    `json:"userId" validate:"required,gt=0"`
	Percent  *float64 `json:"percent" validate:"required"`
	MaxUsage *int     `json:"maxUsage" validate:"required"`
}

func (a *API) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.discounts.Create(r.Context(), req.UserID, *req.Percent, *req.MaxUsage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscount(d))
}

type editDiscountRequest struct {
	Percent  *float64 `json:"percent"`
	MaxUsage *int     `json:"maxUsage"`
}

func (a *API) editDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req editDiscountRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Percent == nil && req.MaxUsage == nil {
		a.fail(w, r, apperr.Wrap(apperr.ErrInvalidInput, "percent or maxUsage is required"))
		return
	}
	d, err := a.discounts.Edit(r.Context(), id, req.Percent, req.MaxUsage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscount(d))
}

func (a *API) getDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.discounts.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscount(d))
}

func (a *API) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.discounts.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listDiscounts(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ds, err := a.discounts.ListByUser(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]discountResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDiscount(d))
	}
	writeJSON(w, http.StatusOK, out)
}
