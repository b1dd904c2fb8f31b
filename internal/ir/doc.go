// Package ir provides the data model of the workflow engine.
//
// This package contains the graph and state types only. All other internal
// packages import ir; ir imports nothing internal. This keeps the model the
// foundational layer with no circular dependencies.
//
// Key types:
//   - Transition: a named hyperedge from one or more places to one or more places
//   - Definition: the immutable graph (places, ordered transitions, initial place)
//   - Marking: token counts per place for a single subject
//   - WorkflowSpec: the declarative configuration a Definition is built from
//
// Key design constraints:
//   - A Definition never changes after NewDefinition returns
//   - Accessors return copies; callers can not reach internal slices or maps
//   - Transition order is the declaration order and drives every tie-break
//   - All JSON tags use snake_case
package ir
