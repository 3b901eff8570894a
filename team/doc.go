// Package team turns a validated hierarchy configuration into a runtime
// object graph: one delegator bound to the default model plus one runtime
// member per agent spec, each bound to a model and its tool instances.
// Assembly is deterministic in structure for a given configuration snapshot;
// the assembled Team is expensive to build and cheap to reuse, which is why
// the cache package keeps it alive across turns.
//
// Session identity is a parameter of Run, never state on the Team, so a
// cached Team can serve concurrent conversations without turns bleeding
// into each other's sessions.
package team
