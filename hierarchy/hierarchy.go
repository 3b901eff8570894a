package hierarchy

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ModelProvider identifies the language model vendor an agent is bound to.
type ModelProvider string

const (
	// ProviderOpenAI selects the OpenAI Chat Completions API.
	ProviderOpenAI ModelProvider = "openai"
	// ProviderClaude selects the Anthropic Messages API.
	ProviderClaude ModelProvider = "claude"
	// ProviderGemini selects Google's Gemini models.
	ProviderGemini ModelProvider = "gemini"
	// ProviderGroq selects Groq-hosted models.
	ProviderGroq ModelProvider = "groq"
)

// DefaultProvider is substituted when a payload omits the provider or names
// one this build does not recognize. Unknown providers are tolerated rather
// than rejected so that older or sloppier clients can still update a
// hierarchy.
const DefaultProvider = ProviderGemini

// DefaultModelID is the model identifier used when a payload omits one, and
// the model every delegator is bound to.
const DefaultModelID = "gemini-1.5-flash"

// ParseProvider maps a case-insensitive provider name to its enum value.
// The boolean reports whether the name was recognized.
func ParseProvider(s string) (ModelProvider, bool) {
	switch ModelProvider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOpenAI:
		return ProviderOpenAI, true
	case ProviderClaude:
		return ProviderClaude, true
	case ProviderGemini:
		return ProviderGemini, true
	case ProviderGroq:
		return ProviderGroq, true
	default:
		return DefaultProvider, false
	}
}

// ToolKind identifies a tool implementation an agent may be equipped with.
// The set is open for extension; kinds unknown to a build are dropped per
// tool during normalization, never failing the whole update.
type ToolKind string

const (
	// ToolDuckDuckGo is web search via the DuckDuckGo instant answer API.
	ToolDuckDuckGo ToolKind = "duckduckgo"
	// ToolYFinance is market data lookup via the Yahoo Finance quote API.
	ToolYFinance ToolKind = "yfinance"
)

// ParseToolKind maps a case-insensitive kind name to its enum value.
func ParseToolKind(s string) (ToolKind, bool) {
	switch ToolKind(strings.ToLower(strings.TrimSpace(s))) {
	case ToolDuckDuckGo:
		return ToolDuckDuckGo, true
	case ToolYFinance:
		return ToolYFinance, true
	default:
		return "", false
	}
}

// ToolSpec configures one tool binding for an agent. Options carries
// tool-kind-specific scalar settings (e.g. {"stock_price": true}) that are
// layered over the kind's defaults at assembly time, caller values winning.
type ToolSpec struct {
	Kind    ToolKind       `json:"kind"`
	Options map[string]any `json:"options,omitempty"`
}

// AgentSpec is the persisted definition of one agent inside a hierarchy.
type AgentSpec struct {
	// ID is the agent's stable identity within its hierarchy. Generated
	// during normalization when the client does not supply one.
	ID       string        `json:"agent_id"`
	Name     string        `json:"name"`
	Role     string        `json:"role"`
	Provider ModelProvider `json:"model_provider"`
	ModelID  string        `json:"model_id"`
	Tools    []ToolSpec    `json:"tools,omitempty"`
	// ParentID optionally references another agent in the same hierarchy.
	// It records reporting structure; it is stored but not yet enforced as
	// a tree.
	ParentID string `json:"parent_id,omitempty"`
}

// DefaultDelegatorInstructions is the routing policy text a freshly
// provisioned instance starts with.
const DefaultDelegatorInstructions = "You are an intelligent router. Analyze the user's message and " +
	"delegate the task to the most suitable specialist on your team. " +
	"Reply only with the name of the specialist that should handle it."

// Config is one tenant instance's full hierarchy configuration. The pair
// (TenantID, InstanceID) is globally unique. An empty agent list is valid;
// it yields a team that can be assembled but has nobody to delegate to.
type Config struct {
	TenantID              string      `json:"tenant_id"`
	InstanceID            string      `json:"instance_id"`
	DelegatorInstructions string      `json:"delegator_instructions"`
	Agents                []AgentSpec `json:"agents"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// NewConfig constructs a Config with documented defaults for the given key.
func NewConfig(tenantID, instanceID string) *Config {
	now := time.Now().UTC()
	return &Config{
		TenantID:              tenantID,
		InstanceID:            instanceID,
		DelegatorInstructions: DefaultDelegatorInstructions,
		Agents:                []AgentSpec{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Clone returns a deep copy safe for divergent mutation.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Agents = make([]AgentSpec, len(c.Agents))
	for i, a := range c.Agents {
		clone.Agents[i] = a.Clone()
	}
	return &clone
}

// Clone returns a deep copy of the agent spec including tool options.
func (a AgentSpec) Clone() AgentSpec {
	clone := a
	clone.Tools = make([]ToolSpec, len(a.Tools))
	for i, t := range a.Tools {
		ts := ToolSpec{Kind: t.Kind}
		if t.Options != nil {
			ts.Options = make(map[string]any, len(t.Options))
			for k, v := range t.Options {
				ts.Options[k] = v
			}
		}
		clone.Tools[i] = ts
	}
	return clone
}

// Update is a partial hierarchy update. Nil pointers mean "field not
// supplied" and leave the stored value untouched; non-nil values replace
// the stored field wholesale. There is deliberately no per-agent diffing:
// a client that wants to edit one agent resends the full desired list.
type Update struct {
	DelegatorInstructions *string      `json:"delegator_instructions,omitempty"`
	Agents                *[]AgentSpec `json:"agents,omitempty"`
}

// IsZero reports whether the update carries no fields at all. A zero update
// is still a valid upsert: it provisions an instance with defaults.
func (u Update) IsZero() bool {
	return u.DelegatorInstructions == nil && u.Agents == nil
}

// NewAgentID generates a fresh stable identifier for an agent spec.
func NewAgentID() string { return uuid.NewString() }
