package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Spok95/tutor-platform/internal/keylock"
	"github.com/Spok95/tutor-platform/internal/models"
)

// MemStore: хранилище в памяти (STORE=memory и тесты).
// Запись по одному владельцу сериализуется keylock, сама карта защищена mu.
type MemStore struct {
	locks *keylock.Map

	mu       sync.RWMutex
	accounts map[int64]models.WalletAccount
	txs      map[int64][]models.WalletTransaction
}

func NewMemStore() *MemStore {
	return &MemStore{
		locks:    keylock.New(),
		accounts: make(map[int64]models.WalletAccount),
		txs:      make(map[int64][]models.WalletTransaction),
	}
}

func (m *MemStore) Apply(_ context.Context, d Delta) (models.WalletAccount, error) {
	unlock := m.locks.Lock(d.OwnerID)
	defer unlock()

	acc := m.load(d.OwnerID)
	ApplyDelta(&acc, d)

	m.mu.Lock()
	m.accounts[d.OwnerID] = acc
	m.txs[d.OwnerID] = append(m.txs[d.OwnerID], models.WalletTransaction{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		Amount:       d.Amount,
		Category:     d.Category,
		Reason:       d.Reason,
		BalanceAfter: acc.Balance,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.At,
	})
	m.mu.Unlock()
	return acc, nil
}

func (m *MemStore) SetMinimum(_ context.Context, ownerID int64, min decimal.Decimal) (models.WalletAccount, error) {
	unlock := m.locks.Lock(ownerID)
	defer unlock()

	acc := m.load(ownerID)
	acc.Minimum = min

	m.mu.Lock()
	m.accounts[ownerID] = acc
	m.mu.Unlock()
	return acc, nil
}

func (m *MemStore) Get(_ context.Context, ownerID int64) (models.WalletAccount, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[ownerID]
	return acc, ok, nil
}

// History: последние записи, новые первыми.
func (m *MemStore) History(_ context.Context, ownerID int64, limit int) ([]models.WalletTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.txs[ownerID]
	out := make([]models.WalletTransaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *MemStore) load(ownerID int64) models.WalletAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[ownerID]
	if !ok {
		acc = models.WalletAccount{OwnerID: ownerID}
	}
	return acc
}
