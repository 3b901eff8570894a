package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/logging"
)

// ErrNotFound indicates no configuration exists for a (tenant, instance) key.
var ErrNotFound = errors.New("hierarchy configuration not found")

// StorageError wraps an underlying persistence failure. Storage failures are
// surfaced to the caller as a failure of the whole operation; this layer
// never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DocumentStore is the minimal CRUD surface the core consumes. Uniqueness of
// (tenantID, instanceID) is enforced by the implementation.
type DocumentStore interface {
	// FindOne returns the configuration for the key or ErrNotFound.
	FindOne(ctx context.Context, tenantID, instanceID string) (*hierarchy.Config, error)

	// Save inserts or replaces the configuration under its key.
	Save(ctx context.Context, cfg *hierarchy.Config) error

	// ListByTenant returns every configuration owned by a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*hierarchy.Config, error)
}

// Adapter applies partial hierarchy updates on top of a DocumentStore.
//
// The merge contract is field-level replace, never per-entry merge: when an
// update carries an agent list the stored list is replaced wholesale, when
// it carries instructions the stored text is replaced wholesale, and absent
// fields are left untouched. Missing configurations are created with
// documented defaults.
type Adapter struct {
	docs   DocumentStore
	logger logging.Logger
}

// NewAdapter constructs an Adapter over the given store.
func NewAdapter(docs DocumentStore, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Adapter{docs: docs, logger: logger}
}

// Upsert creates or updates the configuration for (tenantID, instanceID)
// and returns the persisted result. UpdatedAt is always bumped, including
// for a zero update, so callers can rely on it to detect writes.
//
// After a successful Upsert the caller MUST invalidate any cached team for
// the same key before serving further traffic; serving a team assembled
// from the pre-update configuration is a protocol violation.
func (a *Adapter) Upsert(ctx context.Context, tenantID, instanceID string, upd hierarchy.Update) (*hierarchy.Config, error) {
	cfg, err := a.docs.FindOne(ctx, tenantID, instanceID)
	switch {
	case errors.Is(err, ErrNotFound):
		cfg = hierarchy.NewConfig(tenantID, instanceID)
	case err != nil:
		return nil, &StorageError{Op: "find", Err: err}
	}

	if upd.DelegatorInstructions != nil {
		cfg.DelegatorInstructions = *upd.DelegatorInstructions
	}
	if upd.Agents != nil {
		cfg.Agents = *upd.Agents
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := a.docs.Save(ctx, cfg); err != nil {
		return nil, &StorageError{Op: "save", Err: err}
	}

	a.logger.Info("hierarchy upserted",
		"tenant_id", tenantID, "instance_id", instanceID, "agents", len(cfg.Agents))
	return cfg, nil
}

// Load returns the configuration for a key, provisioning a default one on
// first contact so that a chat call can precede any hierarchy update.
func (a *Adapter) Load(ctx context.Context, tenantID, instanceID string) (*hierarchy.Config, error) {
	cfg, err := a.docs.FindOne(ctx, tenantID, instanceID)
	switch {
	case errors.Is(err, ErrNotFound):
		cfg = hierarchy.NewConfig(tenantID, instanceID)
		if err := a.docs.Save(ctx, cfg); err != nil {
			return nil, &StorageError{Op: "save", Err: err}
		}
		a.logger.Info("provisioned default hierarchy",
			"tenant_id", tenantID, "instance_id", instanceID)
		return cfg, nil
	case err != nil:
		return nil, &StorageError{Op: "find", Err: err}
	}
	return cfg, nil
}

// ListByTenant exposes the underlying listing for inspection endpoints.
func (a *Adapter) ListByTenant(ctx context.Context, tenantID string) ([]*hierarchy.Config, error) {
	cfgs, err := a.docs.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return cfgs, nil
}
