// Package users: справочник пользователей (роли, лимит часов учителя, закреплённый координатор).
package users

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

type Store interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	Get(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	SetMaxHours(ctx context.Context, id int64, hours *float64) (models.User, error)
	SetCoordinator(ctx context.Context, id int64, coordinatorID *int64) (models.User, error)
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

type NewUser struct {
	Name            string
	Role            models.Role
	MaxHoursPerWeek *float64
	CoordinatorID   *int64
	TelegramID      int64
}

func (s *Service) Create(ctx context.Context, nu NewUser) (models.User, error) {
	if sess, ok := ctxutil.Session(ctx); ok {
		if err := sess.CanCreateUsers(); err != nil {
			return models.User{}, err
		}
	}
	nu.Name = strings.TrimSpace(nu.Name)
	if nu.Name == "" {
		return models.User{}, apperr.Wrap(apperr.ErrInvalidInput, "name is required")
	}
	if !nu.Role.Valid() {
		return models.User{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown role %q", nu.Role)
	}
	if err := checkHours(nu.MaxHoursPerWeek); err != nil {
		return models.User{}, err
	}
	if nu.CoordinatorID != nil {
		if err := s.checkCoordinator(ctx, *nu.CoordinatorID); err != nil {
			return models.User{}, err
		}
	}
	u, err := s.store.Create(ctx, models.User{
		Name:            nu.Name,
		Role:            nu.Role,
		MaxHoursPerWeek: nu.MaxHoursPerWeek,
		CoordinatorID:   nu.CoordinatorID,
		TelegramID:      nu.TelegramID,
		IsActive:        true,
	})
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user created", zap.Int64("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// EnsureAdmin заводит администратора name, если в справочнике нет ни одного.
// created=false: администратор уже был, возвращается первый из них.
func (s *Service) EnsureAdmin(ctx context.Context, name string) (u models.User, created bool, err error) {
	admins, err := s.store.List(ctx, models.Admin)
	if err != nil {
		return models.User{}, false, err
	}
	if len(admins) > 0 {
		return admins[0], false, nil
	}
	u, err = s.Create(ctx, NewUser{Name: name, Role: models.Admin})
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

// Get без проверки прав, используется сервисами ядра и middleware аутентификации.
func (s *Service) Get(ctx context.Context, id int64) (models.User, error) {
	return s.store.Get(ctx, id)
}

// View: Get с проверкой прав сессии.
func (s *Service) View(ctx context.Context, id int64) (models.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		if err := sess.CanView(u); err != nil {
			return models.User{}, err
		}
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "unknown role %q", role)
	}
	return s.store.List(ctx, role)
}

// SetMaxHours задаёт недельный лимит учителя; nil снимает ограничение.
func (s *Service) SetMaxHours(ctx context.Context, id int64, hours *float64) (models.User, error) {
	if err := checkHours(hours); err != nil {
		return models.User{}, err
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if u.Role != models.Teacher {
		return models.User{}, apperr.Wrap(apperr.ErrInvalidInput, "user %d is not a teacher", id)
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		if err := sess.CanManage(u); err != nil {
			return models.User{}, err
		}
	}
	return s.store.SetMaxHours(ctx, id, hours)
}

func (s *Service) SetCoordinator(ctx context.Context, id int64, coordinatorID *int64) (models.User, error) {
	if sess, ok := ctxutil.Session(ctx); ok && !sess.IsAdmin() {
		return models.User{}, apperr.Wrap(apperr.ErrForbidden, "only admin can reassign coordinators")
	}
	if coordinatorID != nil {
		if err := s.checkCoordinator(ctx, *coordinatorID); err != nil {
			return models.User{}, err
		}
	}
	return s.store.SetCoordinator(ctx, id, coordinatorID)
}

func (s *Service) checkCoordinator(ctx context.Context, id int64) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Role != models.Coordinator {
		return apperr.Wrap(apperr.ErrInvalidInput, "user %d is not a coordinator", id)
	}
	return nil
}

func checkHours(h *float64) error {
	if h == nil {
		return nil
	}
	if math.IsNaN(*h) || math.IsInf(*h, 0) || *h < 0 {
		return apperr.Wrap(apperr.ErrInvalidRange, "maxHoursPerWeek must be a non-negative number")
	}
	return nil
}
