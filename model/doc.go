// Package model defines the provider-agnostic language model contract used
// by the team assembler, together with the provider-keyed Registry that maps
// a hierarchy.ModelProvider to a model factory. Concrete vendor adapters
// live in sub-packages (openai, anthropic); the Registry is resolved at
// startup so no process-wide provider dispatch exists.
package model
