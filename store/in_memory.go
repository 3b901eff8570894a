package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/teammesh/hierarchy"
)

// InMemoryStore is a volatile DocumentStore implementation keeping
// configurations in a process local map. It is safe for concurrent access
// and best suited for tests or ephemeral demo servers. Each returned
// configuration is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*hierarchy.Config
}

// NewInMemoryStore constructs an empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{configs: make(map[string]*hierarchy.Config)}
}

func key(tenantID, instanceID string) string { return tenantID + ":" + instanceID }

// FindOne returns a clone of the stored configuration or ErrNotFound.
func (s *InMemoryStore) FindOne(_ context.Context, tenantID, instanceID string) (*hierarchy.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[key(tenantID, instanceID)]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg.Clone(), nil
}

// Save stores a clone of the provided configuration snapshot.
func (s *InMemoryStore) Save(_ context.Context, cfg *hierarchy.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[key(cfg.TenantID, cfg.InstanceID)] = cfg.Clone()
	return nil
}

// ListByTenant returns clones of all configurations owned by a tenant,
// ordered by instance id for deterministic listings.
func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID string) ([]*hierarchy.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*hierarchy.Config
	for _, cfg := range s.configs {
		if cfg.TenantID == tenantID {
			out = append(out, cfg.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID < out[j].InstanceID })
	return out, nil
}
