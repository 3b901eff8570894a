package model

import (
	"fmt"
	"sync"

	"github.com/hupe1980/teammesh/hierarchy"
)

// Factory constructs a Model bound to a provider-specific model identifier.
type Factory func(modelID string) (Model, error)

// Registry maps provider enum tags to model factories. It replaces dynamic
// dispatch on provider names with an explicit table resolved at startup and
// is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[hierarchy.ModelProvider]Factory
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[hierarchy.ModelProvider]Factory)}
}

// Register installs (or replaces) the factory for a provider.
func (r *Registry) Register(provider hierarchy.ModelProvider, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Resolve builds a Model for (provider, modelID). The boolean reports
// whether the provider was registered; callers decide the fallback policy.
func (r *Registry) Resolve(provider hierarchy.ModelProvider, modelID string) (Model, bool, error) {
	r.mu.RLock()
	factory, ok := r.factories[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	m, err := factory(modelID)
	if err != nil {
		return nil, true, fmt.Errorf("provider %s: %w", provider, err)
	}
	return m, true, nil
}

// Providers returns the registered provider tags.
func (r *Registry) Providers() []hierarchy.ModelProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]hierarchy.ModelProvider, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	return out
}
