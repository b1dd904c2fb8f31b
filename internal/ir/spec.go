package ir

// Workflow types.
const (
	TypeWorkflow     = "workflow"
	TypeStateMachine = "state_machine"
)

// Marking store kinds.
const (
	// StoreSingleState keeps exactly one place per subject.
	StoreSingleState = "single_state"

	// StoreMultipleState keeps a place -> token count map per subject.
	StoreMultipleState = "multiple_state"
)

// ValidTypes defines the allowed workflow types.
var ValidTypes = map[string]bool{
	TypeWorkflow:     true,
	TypeStateMachine: true,
}

// ValidMarkingStores defines the allowed marking store kinds.
var ValidMarkingStores = map[string]bool{
	StoreSingleState:   true,
	StoreMultipleState: true,
}

// WorkflowSpec is the declarative configuration of one workflow, as read
// from a CUE or YAML definition file.
type WorkflowSpec struct {
	Name         string            `json:"name" yaml:"-"`
	Type         string            `json:"type" yaml:"type"`
	MarkingStore string            `json:"marking_store" yaml:"marking_store"`
	InitialPlace string            `json:"initial_place,omitempty" yaml:"initial_place"`
	Places       []string          `json:"places" yaml:"places"`
	Transitions  []TransitionSpec  `json:"transitions" yaml:"transitions"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TransitionSpec is one transition entry of a WorkflowSpec.
//
// Guard is an optional boolean expression; a transition whose guard
// evaluates to false is blocked.
type TransitionSpec struct {
	Name  string   `json:"name" yaml:"name"`
	From  []string `json:"from" yaml:"from"`
	To    []string `json:"to" yaml:"to"`
	Guard string   `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// IsStateMachine reports whether the spec declares a state machine.
func (s WorkflowSpec) IsStateMachine() bool {
	return s.Type == TypeStateMachine
}

// StoreKind returns the marking store kind, applying the defaults:
// single_state for state machines, multiple_state for workflows.
func (s WorkflowSpec) StoreKind() string {
	if s.MarkingStore != "" {
		return s.MarkingStore
	}
	if s.IsStateMachine() {
		return StoreSingleState
	}
	return StoreMultipleState
}

// Definition builds the immutable Definition described by the spec.
// Errors carry the workflow name.
func (s WorkflowSpec) Definition() (*Definition, error) {
	transitions := make([]Transition, len(s.Transitions))
	for i, t := range s.Transitions {
		transitions[i] = NewTransition(t.Name, t.From, t.To)
	}

	def, err := NewDefinition(s.Places, transitions, s.InitialPlace)
	if err != nil {
		if de, ok := err.(*InvalidDefinitionError); ok && de.Workflow == "" {
			de.Workflow = s.Name
		}
		return nil, err
	}
	return def, nil
}

// Guards returns the guard expression of every transition that has one,
// keyed by transition name. Transitions sharing a name must share a guard;
// the first non-empty expression wins.
func (s WorkflowSpec) Guards() map[string]string {
	guards := make(map[string]string)
	for _, t := range s.Transitions {
		if t.Guard == "" {
			continue
		}
		if _, ok := guards[t.Name]; !ok {
			guards[t.Name] = t.Guard
		}
	}
	return guards
}
