// Package discount: реестр скидок ученика с процентом и лимитом использований.
// Списание использований делает биллинг; здесь только хранение и проверка определения.
package discount

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

type Store interface {
	Create(ctx context.Context, d models.Discount) (models.Discount, error)
	Get(ctx context.Context, id int64) (models.Discount, error)
	// Update сохраняет percent и maxUsage; проверка usageCount <= maxUsage повторяется хранилищем атомарно.
	Update(ctx context.Context, d models.Discount) (models.Discount, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]models.Discount, error)
}

type Users interface {
	Get(ctx context.Context, id int64) (models.User, error)
}

type Service struct {
	store Store
	users Users
	log   *zap.Logger
}

func NewService(store Store, users Users, log *zap.Logger) *Service {
	return &Service{store: store, users: users, log: log}
}

func (s *Service) Create(ctx context.Context, userID int64, percent float64, maxUsage int) (models.Discount, error) {
	if err := checkPercent(percent); err != nil {
		return models.Discount{}, err
	}
	if err := checkMaxUsage(maxUsage, 0); err != nil {
		return models.Discount{}, err
	}
	u, err := s.target(ctx, userID, true)
	if err != nil {
		return models.Discount{}, err
	}
	if u.Role != models.Student {
		return models.Discount{}, apperr.Wrap(apperr.ErrInvalidInput, "discounts apply to students, user %d is %s", userID, u.Role)
	}
	d, err := s.store.Create(ctx, models.Discount{
		UserID:    userID,
		Percent:   percent,
		MaxUsage:  maxUsage,
		CreatedBy: ctxutil.ActorID(ctx),
	})
	if err != nil {
		return models.Discount{}, err
	}
	s.log.Info("discount created", zap.Int64("id", d.ID), zap.Int64("user_id", userID), zap.Float64("percent", percent), zap.Int("max_usage", maxUsage))
	return d, nil
}

// Edit: частичное обновление, nil-поля не меняются.
func (s *Service) Edit(ctx context.Context, id int64, percent *float64, maxUsage *int) (models.Discount, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Discount{}, err
	}
	if _, err := s.target(ctx, d.UserID, true); err != nil {
		return models.Discount{}, err
	}
	if percent != nil {
		if err := checkPercent(*percent); err != nil {
			return models.Discount{}, err
		}
		d.Percent = *percent
	}
	if maxUsage != nil {
		if err := checkMaxUsage(*maxUsage, d.UsageCount); err != nil {
			return models.Discount{}, err
		}
		d.MaxUsage = *maxUsage
	}
	out, err := s.store.Update(ctx, d)
	if err != nil {
		return models.Discount{}, err
	}
	s.log.Info("discount edited", zap.Int64("id", id), zap.Float64("percent", out.Percent), zap.Int("max_usage", out.MaxUsage))
	return out, nil
}

// Delete удаляет определение; история использований не пересчитывается.
func (s *Service) Delete(ctx context.Context, id int64) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.target(ctx, d.UserID, true); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("discount deleted", zap.Int64("id", id), zap.Int64("user_id", d.UserID))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Discount, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Discount{}, err
	}
	if _, err := s.target(ctx, d.UserID, false); err != nil {
		return models.Discount{}, err
	}
	return d, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.Discount, error) {
	if _, err := s.target(ctx, userID, false); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) target(ctx context.Context, userID int64, manage bool) (models.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		check := sess.CanView
		if manage {
			check = sess.CanManage
		}
		if err := check(u); err != nil {
			return models.User{}, err
		}
	}
	return u, nil
}

func checkPercent(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return apperr.Wrap(apperr.ErrInvalidRange, "percent must be within [0,100], got %v", p)
	}
	return nil
}

func checkMaxUsage(n, used int) error {
	if n < 1 {
		return apperr.Wrap(apperr.ErrInvalidRange, "maxUsage must be >= 1, got %d", n)
	}
	if n < used {
		return apperr.Wrap(apperr.ErrInvalidRange, "maxUsage %d is below current usage %d", n, used)
	}
	return nil
}
