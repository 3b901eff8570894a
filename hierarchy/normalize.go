package hierarchy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/teammesh/logging"
)

// ValidationError reports a malformed agent entry that could not be
// normalized. Tool-level problems never produce a ValidationError; they are
// recovered by dropping the offending tool.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// RawTool is the tagged-variant form of a tool entry as clients send it.
// Three shapes are accepted and resolved exactly once, here:
//
//   - a bare string naming a kind: "YFINANCE"
//   - a record with a type/kind field: {"type": "yfinance", "config": {...}}
//   - an already-typed ToolSpec: {"kind": "yfinance", "options": {...}}
//
// Downstream code never branches on dynamic shape again; it only ever sees
// ToolSpec.
type RawTool struct {
	// Bare holds the string form when the entry was a bare kind name.
	Bare string
	// Record holds the object form fields; Kind wins over legacy Type.
	Kind    string
	Type    string
	Options map[string]any
	Config  map[string]any
}

// UnmarshalJSON resolves the union over string and object tool entries.
func (r *RawTool) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Bare = s
		return nil
	}
	var rec struct {
		Kind    string         `json:"kind"`
		Type    string         `json:"type"`
		Options map[string]any `json:"options"`
		Config  map[string]any `json:"config"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("tool entry must be a string or an object: %w", err)
	}
	r.Kind = rec.Kind
	r.Type = rec.Type
	r.Options = rec.Options
	r.Config = rec.Config
	return nil
}

// kindName returns the kind string carried by whichever variant was set.
func (r RawTool) kindName() string {
	if r.Bare != "" {
		return r.Bare
	}
	if r.Kind != "" {
		return r.Kind
	}
	return r.Type
}

// options returns the option map carried by whichever field was set.
// "config" is the legacy field name; "options" wins when both appear.
func (r RawTool) options() map[string]any {
	if r.Options != nil {
		return r.Options
	}
	return r.Config
}

// RawAgent is the loosely-typed agent payload as clients send it. Both
// "agent_id" and "id" are accepted as identity; the provider may be any
// case variant, or missing entirely.
type RawAgent struct {
	AgentID  string    `json:"agent_id"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Provider string    `json:"model_provider"`
	ModelID  string    `json:"model_id"`
	Tools    []RawTool `json:"tools"`
	ParentID string    `json:"parent_id"`
}

// Normalizer converts raw client payloads into valid typed specs. It is
// deliberately permissive: unknown providers fall back to the default,
// unknown tool kinds are dropped per entry with a warning, and identifiers
// are generated when absent. It is stateless and safe for concurrent use.
type Normalizer struct {
	logger logging.Logger
}

// NewNormalizer constructs a Normalizer. A nil logger is replaced by NoOp.
func NewNormalizer(logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Normalizer{logger: logger}
}

// Agent normalizes one raw agent entry into a typed AgentSpec.
//
// Guarantees on success:
//   - ID is non-empty (generated when the payload carried none)
//   - Provider is a recognized enum value
//   - ModelID is non-empty
//   - Tools contains only recognized kinds, in payload order
//
// A missing name is the only hard failure: an agent the delegator cannot
// address by name is unusable.
func (n *Normalizer) Agent(raw RawAgent) (AgentSpec, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return AgentSpec{}, &ValidationError{Field: "name", Message: "agent name is required"}
	}

	id := raw.AgentID
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		id = NewAgentID()
	}

	provider, ok := ParseProvider(raw.Provider)
	if !ok && strings.TrimSpace(raw.Provider) != "" {
		n.logger.Warn("unknown model provider, substituting default",
			"provider", raw.Provider, "agent", name, "default", string(DefaultProvider))
	}

	modelID := strings.TrimSpace(raw.ModelID)
	if modelID == "" {
		modelID = DefaultModelID
	}

	spec := AgentSpec{
		ID:       id,
		Name:     name,
		Role:     raw.Role,
		Provider: provider,
		ModelID:  modelID,
		Tools:    n.tools(name, raw.Tools),
		ParentID: raw.ParentID,
	}
	return spec, nil
}

// Agents normalizes a full agent list, preserving payload order. A single
// malformed agent aborts the update; malformed tools do not.
func (n *Normalizer) Agents(raws []RawAgent) ([]AgentSpec, error) {
	specs := make([]AgentSpec, 0, len(raws))
	for i, raw := range raws {
		spec, err := n.Agent(raw)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// tools resolves each raw tool entry, silently dropping (with a warning)
// entries whose kind this build does not recognize. One malformed tool must
// not abort the whole hierarchy update.
func (n *Normalizer) tools(agentName string, raws []RawTool) []ToolSpec {
	specs := make([]ToolSpec, 0, len(raws))
	for _, raw := range raws {
		name := raw.kindName()
		kind, ok := ParseToolKind(name)
		if !ok {
			n.logger.Warn("unknown tool kind, dropping entry",
				"kind", name, "agent", agentName)
			continue
		}
		specs = append(specs, ToolSpec{Kind: kind, Options: raw.options()})
	}
	return specs
}

// RawUpdate is the loosely-typed hierarchy update payload. Nil slices and
// nil strings mean "field not supplied".
type RawUpdate struct {
	DelegatorInstructions *string     `json:"delegator_instructions"`
	Agents                *[]RawAgent `json:"agents"`
}

// Update normalizes a raw partial update into a typed Update, running every
// supplied agent through Agent normalization.
func (n *Normalizer) Update(raw RawUpdate) (Update, error) {
	upd := Update{DelegatorInstructions: raw.DelegatorInstructions}
	if raw.Agents != nil {
		specs, err := n.Agents(*raw.Agents)
		if err != nil {
			return Update{}, err
		}
		upd.Agents = &specs
	}
	return upd, nil
}
