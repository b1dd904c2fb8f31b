// Package engine implements the workflow and state machine runtime.
//
// A Workflow wraps an immutable ir.Definition, a MarkingStore and an
// optional Dispatcher. It is stateless with respect to subjects: the state
// of a subject is its Marking, read and written through the store.
//
// OPERATIONS:
//
//   - GetMarking reads the subject's marking, seeding the initial place when
//     the marking is empty, and checks every place against the definition.
//   - Can reports whether a named transition is enabled.
//   - EnabledTransitions lists every enabled transition in definition order.
//   - Apply fires the first enabled transition with the given name.
//
// A transition is enabled when every input place is marked and no guard
// listener blocks it. Without a dispatcher nothing can be blocked.
//
// EVENT ORDER:
//
// Apply dispatches, in this exact order:
//
//	workflow.guard, workflow.<name>.guard, workflow.<name>.guard.<transition>
//	workflow.leave, workflow.<name>.leave
//	workflow.<name>.leave.<place>            (per input place, after unmark)
//	workflow.transition, workflow.<name>.transition, workflow.<name>.transition.<transition>
//	workflow.enter, workflow.<name>.enter
//	workflow.<name>.enter.<place>            (per output place, after mark)
//	workflow.<name>.announce.<transition>    (per transition enabled afterwards)
//
// Guard events are dispatched again while the announce phase re-evaluates
// every transition against the new marking.
//
// ATOMICITY:
//
// Apply works on a copy of the marking and writes the store exactly once,
// after the last event. A listener error aborts Apply and the store keeps
// the previous marking.
//
// CONCURRENCY:
//
// A Workflow may be shared across goroutines. Concurrent Apply calls on the
// same subject must be serialized by the caller: the read-modify-write on
// the store is not atomic.
package engine
