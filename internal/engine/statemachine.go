package engine

import (
	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// StateMachine is a Workflow whose definition passed StateMachineValidator:
// every transition has one input and one output, so exactly one place is
// marked at any time.
type StateMachine struct {
	*Workflow
}

// NewStateMachine creates a StateMachine over def. A nil store defaults to
// SingleStateMarkingStore.
func NewStateMachine(def *ir.Definition, store MarkingStore, opts ...Option) (*StateMachine, error) {
	if store == nil {
		store = SingleStateMarkingStore{}
	}

	opts = append(opts[:len(opts):len(opts)], WithValidators(compiler.StateMachineValidator{}))
	w, err := New(def, store, opts...)
	if err != nil {
		return nil, err
	}
	return &StateMachine{Workflow: w}, nil
}
