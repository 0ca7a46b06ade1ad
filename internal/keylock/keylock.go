// Package keylock: мьютекс на ключ (id пользователя, id учителя).
// Используется in-memory хранилищами для атомарного read-modify-write.
package keylock

import "sync"

type Map struct {
	mu   sync.Mutex
	byID map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *Map {
	return &Map{byID: make(map[int64]*entry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
// Запись удаляется из карты, когда её больше никто не держит.
func (l *Map) Lock(id int64) func() {
	l.mu.Lock()
	e, ok := l.byID[id]
	if !ok {
		e = &entry{}
		l.byID[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byID, id)
		}
		l.mu.Unlock()
	}
}

func (l *Map) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
