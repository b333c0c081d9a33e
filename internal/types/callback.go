// Package types provides small shared types used across the module.
package types

import "sync"

// ContextKey is a type for context value keys.
type ContextKey string

// CallbackManager keeps an ordered set of registered callbacks.
// The zero value is ready to use. All methods are safe for concurrent use.
type CallbackManager[T any] struct {
	mu     sync.RWMutex
	order  []int
	cbs    map[int]T
	nextID int
}

func (m *CallbackManager[T]) Len() int {
	if m == nil {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cbs)
}

// Add registers cb and returns a function that removes it again.
// The remove function is idempotent.
func (m *CallbackManager[T]) Add(cb T) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.cbs == nil {
		m.cbs = make(map[int]T)
	}
	m.cbs[id] = cb
	m.order = append(m.order, id)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if _, ok := m.cbs[id]; ok {
				delete(m.cbs, id)
				for i, v := range m.order {
					if v == id {
						m.order = append(m.order[:i], m.order[i+1:]...)
						break
					}
				}
			}
			m.mu.Unlock()
		})
	}
}

// Range calls fn for each registered callback in registration order.
// Callbacks registered or removed during the iteration are not observed.
func (m *CallbackManager[T]) Range(fn func(cb T)) {
	if m == nil {
		return
	}

	m.mu.RLock()
	cbs := make([]T, 0, len(m.order))
	for _, id := range m.order {
		if cb, ok := m.cbs[id]; ok {
			cbs = append(cbs, cb)
		}
	}
	m.mu.RUnlock()

	for _, cb := range cbs {
		fn(cb)
	}
}
