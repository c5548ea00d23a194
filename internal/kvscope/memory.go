package kvscope

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps scopes in process memory.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl of
// inactivity. ttl is raised to MinTTL when shorter.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	ttl = clampTTL(ttl)
	return &MemoryStore{cache: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Scope returns the scope for callerID.
func (s *MemoryStore) Scope(callerID string) Scope {
	return &memoryScope{store: s, callerID: callerID}
}

type memoryScope struct {
	store    *MemoryStore
	callerID string
}

func (m *memoryScope) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.store.cache.Get(namespaced(m.callerID, key))
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *memoryScope) Set(_ context.Context, key string, value []byte) error {
	m.store.cache.Set(namespaced(m.callerID, key), append([]byte(nil), value...), m.store.ttl)
	return nil
}
