package discount

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/models"
)

type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Discount
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[int64]models.Discount)}
}

func (m *MemStore) Create(_ context.Context, d models.Discount) (models.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	d.ID = m.nextID
	d.UsageCount = 0
	d.CreatedAt, d.UpdatedAt = now, now
	m.byID[d.ID] = d
	return d, nil
}

func (m *MemStore) Get(_ context.Context, id int64) (models.Discount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.byID[id]
	if !ok {
		return models.Discount{}, apperr.Wrap(apperr.ErrNotFound, "discount %d", id)
	}
	return d, nil
}

func (m *MemStore) Update(_ context.Context, d models.Discount) (models.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[d.ID]
	if !ok {
		return models.Discount{}, apperr.Wrap(apperr.ErrNotFound, "discount %d", d.ID)
	}
	if d.MaxUsage < cur.UsageCount {
		return models.Discount{}, apperr.Wrap(apperr.ErrInvalidRange, "maxUsage %d is below current usage %d", d.MaxUsage, cur.UsageCount)
	}
	cur.Percent = d.Percent
	cur.MaxUsage = d.MaxUsage
	cur.UpdatedAt = time.Now().UTC()
	m.byID[d.ID] = cur
	return cur, nil
}

func (m *MemStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.Wrap(apperr.ErrNotFound, "discount %d", id)
	}
	delete(m.byID, id)
	return nil
}

func (m *MemStore) ListByUser(_ context.Context, userID int64) ([]models.Discount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Discount
	for _, d := range m.byID {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
