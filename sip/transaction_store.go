package sip

import "sync"

// memoryStore is an in-memory keyed transaction registry.
type memoryStore[K comparable, T any] struct {
	mu sync.RWMutex
	m  map[K]T
}

func newMemoryStore[K comparable, T any]() *memoryStore[K, T] {
	return &memoryStore[K, T]{m: make(map[K]T)}
}

func (s *memoryStore[K, T]) Get(key K) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// PutIfAbsent stores the value if the key is not yet taken.
// It reports whether the value was stored.
func (s *memoryStore[K, T]) PutIfAbsent(key K, val T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = val
	return true
}

func (s *memoryStore[K, T]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *memoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// All returns a snapshot of the stored values.
func (s *memoryStore[K, T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	return out
}
