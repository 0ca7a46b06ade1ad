// Package access: ролевые правила доступа. Сессия передаётся явно через контекст запроса,
// глобального состояния нет.
package access

import (
	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

// Session: read-only снимок текущего пользователя.
type Session struct {
	UserID        int64
	Role          models.Role
	CoordinatorID *int64
}

func SessionFor(u models.User) Session {
	return Session{UserID: u.ID, Role: u.Role, CoordinatorID: u.CoordinatorID}
}

func (s Session) IsAdmin() bool { return s.Role == models.Admin }

// coordinates: target закреплён за координатором s.
func (s Session) coordinates(target models.User) bool {
	return s.Role == models.Coordinator && target.CoordinatorID != nil && *target.CoordinatorID == s.UserID
}

// CanManage: изменение кошелька, скидок, лимита часов и расписания пользователя target.
func (s Session) CanManage(target models.User) error {
	if s.IsAdmin() || s.coordinates(target) {
		return nil
	}
	return apperr.Wrap(apperr.ErrForbidden, "role %s cannot manage user %d", s.Role, target.ID)
}

// CanView: просмотр кошелька, скидок, занятий target.
func (s Session) CanView(target models.User) error {
	if s.UserID == target.ID {
		return nil
	}
	return s.CanManage(target)
}

// CanCreateUsers: заводить пользователей может только админ.
func (s Session) CanCreateUsers() error {
	if s.IsAdmin() {
		return nil
	}
	return apperr.Wrap(apperr.ErrForbidden, "only admin can create users")
}

// CanExportLoad: отчёт по нагрузке учителей.
func (s Session) CanExportLoad() error {
	if s.IsAdmin() || s.Role == models.Coordinator {
		return nil
	}
	return apperr.Wrap(apperr.ErrForbidden, "role %s cannot export teacher load", s.Role)
}
