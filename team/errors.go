package team

import (
	"fmt"

	"github.com/hupe1980/teammesh/hierarchy"
)

// ModelBindingError reports a failure to construct the model binding for an
// agent. Assembly of the whole team fails; no partial team is returned.
type ModelBindingError struct {
	Agent    string
	Provider hierarchy.ModelProvider
	ModelID  string
	Err      error
}

func (e *ModelBindingError) Error() string {
	return fmt.Sprintf("model binding for agent %q (%s/%s): %v", e.Agent, e.Provider, e.ModelID, e.Err)
}

func (e *ModelBindingError) Unwrap() error { return e.Err }

// ToolBindingError reports a failure to construct a tool binding for an
// agent. Unknown kinds never reach this point (dropped at normalization);
// this covers factory failures for recognized kinds.
type ToolBindingError struct {
	Agent string
	Kind  hierarchy.ToolKind
	Err   error
}

func (e *ToolBindingError) Error() string {
	return fmt.Sprintf("tool binding %s for agent %q: %v", e.Kind, e.Agent, e.Err)
}

func (e *ToolBindingError) Unwrap() error { return e.Err }
