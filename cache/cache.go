// Package cache keeps assembled runtime teams alive across chat turns,
// keyed by (tenantID, instanceID). Construction is coordinated per key so
// concurrent cache misses result in exactly one assembly, and invalidation
// after a hierarchy update is immediately visible to subsequent lookups.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/store"
	"github.com/hupe1980/teammesh/team"
)

// Cache is the tenant-scoped team assembly cache. It is an explicitly owned
// component: construct one, pass it around, and let it die with its owner.
// There is no process-wide singleton.
//
// Entries live until explicitly invalidated; there is no TTL. That is a
// known gap (assembled teams hold live provider clients indefinitely), kept
// deliberately until a reclamation policy exists that does not drop teams
// mid-conversation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*team.Team
	// gens guards against a build that was in flight across an
	// invalidation caching its now-stale result.
	gens map[string]uint64

	group     singleflight.Group
	configs   *store.Adapter
	assembler *team.Assembler
	logger    logging.Logger
}

// New constructs a Cache over the given config adapter and assembler.
func New(configs *store.Adapter, assembler *team.Assembler, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Cache{
		entries:   make(map[string]*team.Team),
		gens:      make(map[string]uint64),
		configs:   configs,
		assembler: assembler,
		logger:    logger,
	}
}

func cacheKey(tenantID, instanceID string) string { return tenantID + ":" + instanceID }

// GetOrCreate returns the cached team for the key, building it on first
// access. A miss loads the current configuration (provisioning a default
// one on first contact), assembles the team outside the map lock, caches
// it, and returns it. Concurrent misses for the same key share one build;
// every caller observes the same *team.Team.
//
// Assembly or storage failure creates no cache entry.
func (c *Cache) GetOrCreate(ctx context.Context, tenantID, instanceID string) (*team.Team, error) {
	key := cacheKey(tenantID, instanceID)

	c.mu.RLock()
	t, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Another flight may have populated the entry between our miss and
		// this call.
		c.mu.RLock()
		t, ok := c.entries[key]
		gen := c.gens[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		cfg, err := c.configs.Load(ctx, tenantID, instanceID)
		if err != nil {
			return nil, err
		}
		built, err := c.assembler.Assemble(cfg)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = built
		}
		// Generation moved: the configuration changed while we were
		// building. The caller still gets the team its call observed, but
		// it must not be cached past the invalidation.
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("team build shared between concurrent callers",
			"tenant_id", tenantID, "instance_id", instanceID)
	}
	return v.(*team.Team), nil
}

// Invalidate evicts any cached team for the key. The next GetOrCreate
// rebuilds from the currently persisted configuration; in-flight builds
// started before the invalidation cannot repopulate the entry.
func (c *Cache) Invalidate(tenantID, instanceID string) {
	key := cacheKey(tenantID, instanceID)

	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()

	// Late arrivals must not join a flight that read the old config.
	c.group.Forget(key)

	c.logger.Debug("team cache entry invalidated",
		"tenant_id", tenantID, "instance_id", instanceID)
}

// Len reports the number of cached teams. Intended for tests and metrics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
