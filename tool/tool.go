// Package tool implements the tool binding subsystem that lets agents
// invoke structured capabilities (search, market data) through a uniform
// interface with consistent error handling and rich metadata for LLM
// guidance. The kind-keyed Registry layers tool-specific defaults under
// caller-supplied options, caller values winning on conflict.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/teammesh/hierarchy"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// This schema is used for LLM function calling.
	Parameters() map[string]any

	// Call executes the tool with structured arguments parsed from the
	// model's function call JSON.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Error represents errors that occur during tool execution.
type Error struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}

// Factory constructs a Tool from resolved options (defaults already layered
// under the caller's values).
type Factory func(options map[string]any) (Tool, error)

// Registry maps tool kind enum tags to factories together with the kind's
// option defaults. It replaces dynamic dispatch on kind names with an
// explicit table resolved at startup and is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[hierarchy.ToolKind]Factory
	defaults  map[hierarchy.ToolKind]map[string]any
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[hierarchy.ToolKind]Factory),
		defaults:  make(map[hierarchy.ToolKind]map[string]any),
	}
}

// Register installs (or replaces) the factory for a kind along with its
// option defaults. Defaults may be nil.
func (r *Registry) Register(kind hierarchy.ToolKind, defaults map[string]any, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	r.defaults[kind] = defaults
}

// Resolve builds a Tool for the spec, layering the kind's defaults under
// the spec's options (spec values win). The boolean reports whether the
// kind was registered.
func (r *Registry) Resolve(spec hierarchy.ToolSpec) (Tool, bool, error) {
	r.mu.RLock()
	factory, ok := r.factories[spec.Kind]
	defaults := r.defaults[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	options := make(map[string]any, len(defaults)+len(spec.Options))
	for k, v := range defaults {
		options[k] = v
	}
	for k, v := range spec.Options {
		options[k] = v
	}

	t, err := factory(options)
	if err != nil {
		return nil, true, fmt.Errorf("tool kind %s: %w", spec.Kind, err)
	}
	return t, true, nil
}

// Kinds returns the registered kind tags.
func (r *Registry) Kinds() []hierarchy.ToolKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]hierarchy.ToolKind, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	return out
}

// DefaultRegistry builds a Registry covering the built-in tool kinds with
// their documented option defaults.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(hierarchy.ToolDuckDuckGo, nil, func(options map[string]any) (Tool, error) {
		return NewDuckDuckGoTool(options), nil
	})
	r.Register(hierarchy.ToolYFinance, YFinanceDefaults(), func(options map[string]any) (Tool, error) {
		return NewYFinanceTool(options), nil
	})
	return r
}

// boolOption reads a boolean option tolerating absent keys.
func boolOption(options map[string]any, key string) bool {
	v, ok := options[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
