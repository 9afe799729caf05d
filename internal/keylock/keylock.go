// Package keylock serializes work per string key while letting different
// keys proceed concurrently.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out one mutex per key and forgets it once nobody holds or waits on it.
type Map struct {
	mu    sync.Mutex
	byKey map[string]*entry
}

func New() *Map {
	return &Map{byKey: make(map[string]*entry)}
}

// Lock blocks until key is free and returns the matching unlock function.
func (m *Map) Lock(key string) (unlock func()) {
	m.mu.Lock()
	e, ok := m.byKey[key]
	if !ok {
		e = &entry{}
		m.byKey[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.byKey, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}
