package httpapi

import (
	"net/http"

	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/users"
)

type createUserRequest struct {
	Name            string   `json:"name" validate:"required,notblank,max=200"`
	Role            string   `json:"role" validate:"required,oneof=admin coordinator teacher student parent"`
	MaxHoursPerWeek *float64 `json:"maxHoursPerWeek" validate:"omitempty,gte=0"`
	CoordinatorID   *int64   `json:"coordinatorId" validate:"omitempty,gt=0"`
	TelegramID      int64    `json:"telegramId" validate:"gte=0"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.users.Create(r.Context(), users.NewUser{
		Name:            req.Name,
		Role:            models.Role(req.Role),
		MaxHoursPerWeek: req.MaxHoursPerWeek,
		CoordinatorID:   req.CoordinatorID,
		TelegramID:      req.TelegramID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(u))
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.users.View(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

// maxHoursPerWeek: null снимает лимит.
type setMaxHoursRequest struct {
	MaxHoursPerWeek *float64 `json:"maxHoursPerWeek" validate:"omitempty,gte=0"`
}

func (a *API) setMaxHours(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req setMaxHoursRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.users.SetMaxHours(r.Context(), id, req.MaxHoursPerWeek)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}
