package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/metrics"
	"github.com/Spok95/tutor-platform/internal/models"
)

// Store применяет изменения атомарно для одного владельца.
// Apply и SetMinimum создают кошелёк, если его ещё нет.
type Store interface {
	Apply(ctx context.Context, d Delta) (models.WalletAccount, error)
	SetMinimum(ctx context.Context, ownerID int64, min decimal.Decimal) (models.WalletAccount, error)
	Get(ctx context.Context, ownerID int64) (models.WalletAccount, bool, error)
	History(ctx context.Context, ownerID int64, limit int) ([]models.WalletTransaction, error)
}

// Users: справочник пользователей; Get возвращает apperr.ErrNotFound для неизвестного id.
type Users interface {
	Get(ctx context.Context, id int64) (models.User, error)
}

type Service struct {
	store Store
	users Users
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, users Users, log *zap.Logger) *Service {
	return &Service{store: store, users: users, log: log, now: time.Now}
}

type AdjustRequest struct {
	OwnerID  int64
	Amount   float64
	Category string
	Reason   string
}

// Adjust применяет balance += amount и, для категорий с итогами, totals[category] += |amount|.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (models.WalletAccount, error) {
	amount, err := checkAmount(req.Amount)
	if err != nil {
		return models.WalletAccount{}, err
	}
	if _, err := s.owner(ctx, req.OwnerID, true); err != nil {
		return models.WalletAccount{}, err
	}

	cat, raw := ParseCategory(req.Category)
	reason := req.Reason
	if raw != "" {
		if reason == "" {
			reason = raw
		} else {
			reason = raw + ": " + reason
		}
	}

	d := Delta{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Amount:    amount,
		Category:  cat,
		Reason:    reason,
		CreatedBy: ctxutil.ActorID(ctx),
		At:        s.now().UTC(),
	}
	acc, err := s.store.Apply(ctx, d)
	if err != nil {
		return models.WalletAccount{}, err
	}
	metrics.WalletAdjustments.WithLabelValues(string(cat)).Inc()
	s.log.Info("wallet adjusted",
		zap.Int64("owner_id", d.OwnerID),
		zap.String("amount", d.Amount.String()),
		zap.String("category", string(cat)),
		zap.String("balance", acc.Balance.String()),
		zap.Int64("by", d.CreatedBy),
		zap.String("tx_id", d.ID.String()),
	)
	return acc, nil
}

// SetMinimum заменяет порог; порог не проверяется при списаниях.
func (s *Service) SetMinimum(ctx context.Context, ownerID int64, minBalance float64) (models.WalletAccount, error) {
	m, err := checkMinimum(minBalance)
	if err != nil {
		return models.WalletAccount{}, err
	}
	if _, err := s.owner(ctx, ownerID, true); err != nil {
		return models.WalletAccount{}, err
	}
	acc, err := s.store.SetMinimum(ctx, ownerID, m)
	if err != nil {
		return models.WalletAccount{}, err
	}
	s.log.Info("wallet minimum set", zap.Int64("owner_id", ownerID), zap.String("minimum", m.String()))
	return acc, nil
}

// Get возвращает снимок кошелька; для пользователя без движений: нулевой кошелёк.
func (s *Service) Get(ctx context.Context, ownerID int64) (models.WalletAccount, error) {
	if _, err := s.owner(ctx, ownerID, false); err != nil {
		return models.WalletAccount{}, err
	}
	acc, ok, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return models.WalletAccount{}, err
	}
	if !ok {
		return models.WalletAccount{OwnerID: ownerID}, nil
	}
	return acc, nil
}

func (s *Service) History(ctx context.Context, ownerID int64, limit int) ([]models.WalletTransaction, error) {
	if _, err := s.owner(ctx, ownerID, false); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.store.History(ctx, ownerID, limit)
}

// owner проверяет существование пользователя и, если в контексте есть сессия, права на него.
func (s *Service) owner(ctx context.Context, id int64, manage bool) (models.User, error) {
	u, err := s.users.Get(ctx, id)
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
