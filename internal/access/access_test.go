package access

import (
	"errors"
	"testing"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

func ptrInt64(v int64) *int64 { return &v }

func TestSession_CanManage(t *testing.T) {
	student := models.User{ID: 10, Role: models.Student, CoordinatorID: ptrInt64(2)}
	other := models.User{ID: 11, Role: models.Student, CoordinatorID: ptrInt64(3)}

	cases := []struct {
		name   string
		s      Session
		target models.User
		ok     bool
	}{
		{"admin_any", Session{UserID: 1, Role: models.Admin}, other, true},
		{"coordinator_own", Session{UserID: 2, Role: models.Coordinator}, student, true},
		{"coordinator_foreign", Session{UserID: 2, Role: models.Coordinator}, other, false},
		{"teacher_cannot", Session{UserID: 5, Role: models.Teacher}, student, false},
		{"student_self_cannot_manage", Session{UserID: 10, Role: models.Student}, student, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.s.CanManage(c.target)
			if c.ok && err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			if !c.ok && !errors.Is(err, apperr.ErrForbidden) {
				t.Fatalf("ожидали ErrForbidden, получили %v", err)
			}
		})
	}
}

func TestSession_CanView(t *testing.T) {
	parent := models.User{ID: 20, Role: models.Parent}
	if err := (Session{UserID: 20, Role: models.Parent}).CanView(parent); err != nil {
		t.Fatalf("свой кошелёк должен быть виден: %v", err)
	}
	if err := (Session{UserID: 21, Role: models.Parent}).CanView(parent); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("чужой кошелёк не должен быть виден, получили %v", err)
	}
}
