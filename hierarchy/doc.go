// Package hierarchy defines the typed configuration model for a tenant's
// agent team (agent specs, tool specs, delegator instructions) together with
// the Normalizer that converts loosely-typed client payloads into valid
// instances of that model. All other packages operate on the typed model
// only; tolerant parsing of heterogeneous input shapes happens here and
// nowhere else.
package hierarchy
