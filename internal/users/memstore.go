package users

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
	byID   map[int64]models.User
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[int64]models.User)}
}

func (m *MemStore) Create(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.byID[u.ID] = u
	return u, nil
}

func (m *MemStore) Get(_ context.Context, id int64) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, apperr.Wrap(apperr.ErrNotFound, "user %d", id)
	}
	return u, nil
}

func (m *MemStore) List(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.User
	for _, u := range m.byID {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) SetMaxHours(_ context.Context, id int64, hours *float64) (models.User, error) {
	return m.update(id, func(u *models.User) { u.MaxHoursPerWeek = hours })
}

func (m *MemStore) SetCoordinator(_ context.Context, id int64, coordinatorID *int64) (models.User, error) {
	return m.update(id, func(u *models.User) { u.CoordinatorID = coordinatorID })
}

func (m *MemStore) update(id int64, fn func(*models.User)) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, apperr.Wrap(apperr.ErrNotFound, "user %d", id)
	}
	fn(&u)
	m.byID[id] = u
	return u, nil
}
