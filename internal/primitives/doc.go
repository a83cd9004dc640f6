// Package primitives provides the serializable definition of an automaton:
// milestones, behaviours, controller sets and control switches, with the
// JSON and YAML tags used on the wire and structural validation.
//
// Core invariants:
// - Definitions are plain data; compiling them into a hybridx.Automaton is
//   the job of internal/core
// - Validate never mutates the definition
// - ComputeVersion is deterministic for equal definitions
package primitives
