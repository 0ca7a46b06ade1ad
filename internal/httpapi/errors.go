package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/logging"
	"github.com/Spok95/tutor-platform/internal/metrics"
	"github.com/Spok95/tutor-platform/internal/observability"
	"github.com/Spok95/tutor-platform/internal/schedule"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type capExceededBody struct {
	Error           string  `json:"error"`
	CurrentHours    float64 `json:"currentHours"`
	ProjectedHours  float64 `json:"projectedHours"`
	MaxHoursPerWeek float64 `json:"maxHoursPerWeek"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf: HTTP-статус для ошибки ядра; 0 означает серверную ошибку.
func statusOf(err error) int {
	switch {
	case errors.Is(err, schedule.ErrWeeklyCapExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidAmount),
		errors.Is(err, apperr.ErrInvalidRange),
		errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		return http.StatusConflict
	}
	return 0
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe fieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fe})
		return
	}
	var capErr *schedule.CapError
	if errors.As(err, &capErr) {
		writeJSON(w, http.StatusUnprocessableEntity, capExceededBody{
			Error:           schedule.ErrWeeklyCapExceeded.Error(),
			CurrentHours:    capErr.Result.CurrentHours,
			ProjectedHours:  capErr.Result.ProjectedHours,
			MaxHoursPerWeek: capErr.MaxHoursPerWeek,
		})
		return
	}
	if status := statusOf(err); status != 0 {
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	metrics.HandlerErrors.Inc()
	observability.CaptureErrCtx(r.Context(), err)
	logging.With(a.log, r.Context()).Error("handler failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}
