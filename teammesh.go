// Package teammesh provides a high-level façade over the tenant-scoped team
// machinery (hierarchy store, input normalizer, team assembler, team cache
// and transcript store) enabling a transport layer to stay a thin shell.
// Most applications interact with this package by:
//  1. Creating a Manager via New() (optionally overriding default in-memory services)
//  2. Updating tenant hierarchies via UpdateHierarchy
//  3. Running chat turns via Chat, which reuses cached assembled teams
//
// All defaults are safe for local development and testing; production
// deployments typically supply durable store implementations and a
// structured logger.
package teammesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/teammesh/cache"
	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/model"
	"github.com/hupe1980/teammesh/model/providers"
	"github.com/hupe1980/teammesh/store"
	"github.com/hupe1980/teammesh/team"
	"github.com/hupe1980/teammesh/tool"
	"github.com/hupe1980/teammesh/transcript"
)

// Options configures the Manager instance.
type Options struct {
	// DocumentStore persists hierarchy configurations.
	// Defaults to an in-memory implementation if not provided.
	DocumentStore store.DocumentStore

	// TranscriptStore persists per-session conversation logs.
	// Defaults to an in-memory implementation if not provided.
	TranscriptStore transcript.Store

	// ModelRegistry maps providers to model factories.
	// Defaults to the full provider set if not provided.
	ModelRegistry *model.Registry

	// ToolRegistry maps tool kinds to factories.
	// Defaults to the built-in kinds if not provided.
	ToolRegistry *tool.Registry

	// HistoryEnabled lets the delegator see prior turns when routing.
	HistoryEnabled bool

	// MaxModelCalls bounds model invocations per chat turn. 0 is unlimited.
	MaxModelCalls int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Manager is the high-level façade aggregating the store adapter, team
// cache and transcript store. All methods are safe for concurrent use.
type Manager struct {
	opts        Options
	normalizer  *hierarchy.Normalizer
	configs     *store.Adapter
	teams       *cache.Cache
	transcripts transcript.Store
	logger      logging.Logger
}

// New creates a new Manager with optional overrides. Any unset service is
// initialized with an in-memory or default implementation.
func New(optFns ...func(o *Options)) *Manager {
	opts := Options{
		DocumentStore:   store.NewInMemoryStore(),
		TranscriptStore: transcript.NewInMemoryStore(),
		ModelRegistry:   providers.DefaultRegistry(),
		ToolRegistry:    tool.DefaultRegistry(),
		HistoryEnabled:  true,
		MaxModelCalls:   6,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	configs := store.NewAdapter(opts.DocumentStore, opts.Logger)
	assembler := team.NewAssembler(opts.ModelRegistry, opts.ToolRegistry, opts.TranscriptStore,
		func(o *team.AssemblerOptions) {
			o.HistoryEnabled = opts.HistoryEnabled
			o.MaxModelCalls = opts.MaxModelCalls
			o.Logger = opts.Logger
		})

	return &Manager{
		opts:        opts,
		normalizer:  hierarchy.NewNormalizer(opts.Logger),
		configs:     configs,
		teams:       cache.New(configs, assembler, opts.Logger),
		transcripts: opts.TranscriptStore,
		logger:      opts.Logger,
	}
}

// ChatRequest is one chat turn addressed to a tenant instance's team.
type ChatRequest struct {
	TenantID   string `json:"tenant_id"`
	InstanceID string `json:"instance_id"`
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	// CustomerName optionally prefixes the message with display context so
	// the team knows who it is talking to.
	CustomerName string `json:"customer_name,omitempty"`
}

// ChatResponse is the reply of one chat turn.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	// Agent names the member that answered; empty when the delegator
	// answered directly.
	Agent string `json:"agent,omitempty"`
}

// Chat runs one delegated turn against the (cached) team for the key. The
// team is assembled on first contact from the persisted configuration,
// provisioning a default one when none exists. A failure of the turn leaves
// the cached team intact; honor caller deadlines via ctx.
func (m *Manager) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.TenantID == "" || req.InstanceID == "" {
		return nil, fmt.Errorf("tenant id and instance id are required")
	}

	t, err := m.teams.GetOrCreate(ctx, req.TenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}

	message := req.Message
	if req.CustomerName != "" {
		message = fmt.Sprintf("[Customer: %s] %s", req.CustomerName, message)
	}

	reply, err := t.Run(ctx, req.SessionID, message)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Response: reply.Content, SessionID: reply.SessionID, Agent: reply.Agent}, nil
}

// UpdateHierarchy normalizes and persists a partial hierarchy update for
// the key, creating the configuration when absent, then invalidates any
// cached team so the next chat turn rebuilds from the new configuration.
// The persistence write always precedes the eviction.
func (m *Manager) UpdateHierarchy(ctx context.Context, tenantID, instanceID string, raw hierarchy.RawUpdate) (*hierarchy.Config, error) {
	if tenantID == "" || instanceID == "" {
		return nil, fmt.Errorf("tenant id and instance id are required")
	}

	upd, err := m.normalizer.Update(raw)
	if err != nil {
		return nil, err
	}

	cfg, err := m.configs.Upsert(ctx, tenantID, instanceID, upd)
	if err != nil {
		return nil, err
	}

	m.teams.Invalidate(tenantID, instanceID)
	return cfg, nil
}

// ListInstances returns every hierarchy configuration owned by a tenant.
func (m *Manager) ListInstances(ctx context.Context, tenantID string) ([]*hierarchy.Config, error) {
	return m.configs.ListByTenant(ctx, tenantID)
}

// ListSessions returns summaries of the sessions under an instance.
func (m *Manager) ListSessions(ctx context.Context, tenantID, instanceID string) ([]transcript.Summary, error) {
	return m.transcripts.List(ctx, tenantID, instanceID)
}

// GetTranscript returns the full message log of one session, or
// transcript.ErrNotFound for an unknown session id.
func (m *Manager) GetTranscript(ctx context.Context, tenantID, instanceID, sessionID string) (*transcript.Transcript, error) {
	return m.transcripts.Get(ctx, tenantID, instanceID, sessionID)
}
