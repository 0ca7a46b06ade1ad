package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/keylock"
	"github.com/Spok95/tutor-platform/internal/models"
)

// MemStore: хранилище в памяти; учитель блокируется через keylock.
type MemStore struct {
	locks *keylock.Map

	mu      sync.RWMutex
	nextID  int64
	classes map[int64]models.ScheduledClass
}

func NewMemStore() *MemStore {
	return &MemStore{locks: keylock.New(), classes: make(map[int64]models.ScheduledClass)}
}

type memTx struct {
	m         *MemStore
	teacherID int64
	pending   []models.ScheduledClass
}

func (t *memTx) ClassesBetween(ctx context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error) {
	return t.m.ClassesBetween(ctx, teacherID, from, to)
}

func (t *memTx) Insert(_ context.Context, c models.ScheduledClass) (models.ScheduledClass, error) {
	t.m.mu.Lock()
	t.m.nextID++
	c.ID = t.m.nextID
	t.m.mu.Unlock()
	c.CreatedAt = time.Now().UTC()
	t.pending = append(t.pending, c)
	return c, nil
}

func (m *MemStore) InTeacherTx(ctx context.Context, teacherID int64, fn func(Tx) error) error {
	unlock := m.locks.Lock(teacherID)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.ErrConcurrencyConflict, "teacher %d lock: %v", teacherID, err)
	}

	tx := &memTx{m: m, teacherID: teacherID}
	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	for _, c := range tx.pending {
		m.classes[c.ID] = c
	}
	m.mu.Unlock()
	return nil
}

func (m *MemStore) ClassesBetween(_ context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ScheduledClass
	for _, c := range m.classes {
		if c.TeacherID == teacherID && inWeek(c.StartsAt, from, to) {
			out = append(out, c)
		}
	}
	sortClasses(out)
	return out, nil
}

func (m *MemStore) List(_ context.Context, f Filter) ([]models.ScheduledClass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ScheduledClass
	for _, c := range m.classes {
		if f.TeacherID != nil && c.TeacherID != *f.TeacherID {
			continue
		}
		if f.StudentID != nil && (c.StudentID == nil || *c.StudentID != *f.StudentID) {
			continue
		}
		if !f.From.IsZero() && c.StartsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.StartsAt.Before(f.To) {
			continue
		}
		out = append(out, c)
	}
	sortClasses(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemStore) Get(_ context.Context, id int64) (models.ScheduledClass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[id]
	if !ok {
		return models.ScheduledClass{}, apperr.Wrap(apperr.ErrNotFound, "class %d", id)
	}
	return c, nil
}

func (m *MemStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[id]; !ok {
		return apperr.Wrap(apperr.ErrNotFound, "class %d", id)
	}
	delete(m.classes, id)
	return nil
}

func sortClasses(cs []models.ScheduledClass) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].StartsAt.Equal(cs[j].StartsAt) {
			return cs[i].StartsAt.Before(cs[j].StartsAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
