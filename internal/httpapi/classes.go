package httpapi

import (
	"net/http"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/export"
	"github.com/Spok95/tutor-platform/internal/schedule"
)

// durationMinutes не ограничен тегом: ноль и минус отклоняет валидатор расписания.
type scheduleClassRequest struct {
	TeacherID       int64  `json:"teacherId" validate:"required,gt=0"`
	StudentID       *int64 `json:"studentId" validate:"omitempty,gt=0"`
	Title           string `json:"title" validate:"max=200"`
	StartsAt        string `json:"startsAt" validate:"required"`
	DurationMinutes *int   `json:"durationMinutes" validate:"required"`
}

func (a *API) scheduleClass(w http.ResponseWriter, r *http.Request) {
	var req scheduleClassRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	startsAt, err := parseTime(req.StartsAt, "startsAt", a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, res, err := a.schedule.Schedule(r.Context(), schedule.NewClass{
		TeacherID:       req.TeacherID,
		StudentID:       req.StudentID,
		Title:           req.Title,
		StartsAt:        startsAt,
		DurationMinutes: *req.DurationMinutes,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheduleResponse{Class: toClass(c, a.loc), Week: res})
}

func (a *API) listClasses(w http.ResponseWriter, r *http.Request) {
	var (
		f   schedule.Filter
		err error
	)
	if f.TeacherID, err = queryID(r, "teacherId"); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.StudentID, err = queryID(r, "studentId"); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.From, err = queryTime(r, "from", a.loc); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.To, err = queryTime(r, "to", a.loc); err != nil {
		a.fail(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		a.fail(w, r, err)
		return
	}
	cs, err := a.schedule.List(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]classResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClass(c, a.loc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) cancelClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.schedule.Cancel(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) weeklyLoad(w http.ResponseWriter, r *http.Request) {
	teacherID, err := queryID(r, "teacherId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if teacherID == nil {
		a.fail(w, r, apperr.Wrap(apperr.ErrInvalidInput, "teacherId is required"))
		return
	}
	at, err := queryTime(r, "at", a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	load, err := a.schedule.WeeklyLoad(r.Context(), *teacherID, at)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, load)
}

func (a *API) weeklyLoadExport(w http.ResponseWriter, r *http.Request) {
	at, err := queryTime(r, "at", a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if at.IsZero() {
		at = a.now()
	}
	loads, err := a.schedule.TeacherLoads(r.Context(), at)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	f, err := export.WeeklyLoad(loads, a.loc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	from, _ := schedule.WeekBounds(at, a.loc)
	writeXLSX(w, export.WeeklyLoadFilename(from), f)
}
