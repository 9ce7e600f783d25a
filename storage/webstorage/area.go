package webstorage

import (
	"errors"
	"slices"
	"sync"
)

// ErrUnavailable indicates the host cannot provide the requested area.
var ErrUnavailable = errors.New("web storage area is not available")

// Kind selects one of the two storage areas of a browsing context.
type Kind string

const (
	// Local is the persistent area (window.localStorage).
	Local Kind = "localStorage"
	// Session is the session-scoped area (window.sessionStorage).
	Session Kind = "sessionStorage"
)

// Area is the item-access shape of a web storage area.
type Area interface {
	// Item returns the stored string and whether the key exists.
	Item(key string) (string, bool)
	// SetItem stores value under key. The host may refuse (quota).
	SetItem(key, value string) error
	RemoveItem(key string)
	Clear()
	// Keys returns every key of the area.
	Keys() []string
}

// Host provides the storage areas of the surrounding environment.
type Host interface {
	// Area returns the area of the given kind, or ErrUnavailable.
	Area(kind Kind) (Area, error)
}

// MemoryArea is an in-memory Area, used when the host has no web storage.
type MemoryArea struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Area = (*MemoryArea)(nil)

// NewMemoryArea returns an empty in-memory area.
func NewMemoryArea() *MemoryArea {
	return &MemoryArea{items: make(map[string]string)}
}

func (m *MemoryArea) Item(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryArea) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryArea) RemoveItem(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

func (m *MemoryArea) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.items)
}

// Keys returns the keys in sorted order.
func (m *MemoryArea) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored items.
func (m *MemoryArea) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// MemoryHost is a Host backed by two in-memory areas. Tests use it to stand
// in for a browser.
type MemoryHost struct {
	LocalArea   *MemoryArea
	SessionArea *MemoryArea
}

// NewMemoryHost returns a MemoryHost with both areas available.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		LocalArea:   NewMemoryArea(),
		SessionArea: NewMemoryArea(),
	}
}

func (h *MemoryHost) Area(kind Kind) (Area, error) {
	switch kind {
	case Local:
		if h.LocalArea != nil {
			return h.LocalArea, nil
		}
	case Session:
		if h.SessionArea != nil {
			return h.SessionArea, nil
		}
	}
	return nil, ErrUnavailable
}
