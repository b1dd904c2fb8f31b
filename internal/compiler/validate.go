package compiler

import (
	"fmt"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Validator checks a Definition against the structural constraints of one
// engine flavor. Validators are fail-fast: the first violation, in
// definition order, is returned as an *ir.InvalidDefinitionError.
type Validator interface {
	Validate(def *ir.Definition, name string) error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(def *ir.Definition, name string) error

// Validate calls f(def, name).
func (f ValidatorFunc) Validate(def *ir.Definition, name string) error {
	return f(def, name)
}

// Chain runs validators in order and stops at the first error.
// Nil entries are skipped.
func Chain(validators ...Validator) Validator {
	return ValidatorFunc(func(def *ir.Definition, name string) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v.Validate(def, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// WorkflowValidator is the base validator of a generic Petri-net workflow.
//
// Every structural rule of a generic workflow (known places, non-empty
// inputs and outputs, valid initial place) already holds for any Definition
// returned by ir.NewDefinition, so this validator accepts everything.
type WorkflowValidator struct{}

// Validate implements Validator.
func (WorkflowValidator) Validate(def *ir.Definition, name string) error {
	return nil
}

// StateMachineValidator enforces the state machine restrictions:
//   - every transition has exactly one output (E210)
//   - every transition has exactly one input (E211)
//   - a transition name is unique among the transitions leaving a place (E212)
//
// Together they guarantee that exactly one place is marked at any time.
type StateMachineValidator struct{}

// Validate implements Validator.
func (StateMachineValidator) Validate(def *ir.Definition, name string) error {
	// from place -> transition names already seen
	seen := make(map[string]map[string]bool)

	for _, t := range def.Transitions() {
		if len(t.Tos) != 1 {
			return &ir.InvalidDefinitionError{
				Code:       ir.ErrMultipleOutputs,
				Workflow:   name,
				Transition: t.Name,
				Message: fmt.Sprintf("A transition in StateMachine can only have one output. But the transition %q in StateMachine %q has %d outputs.",
					t.Name, name, len(t.Tos)),
			}
		}

		if len(t.Froms) != 1 {
			return &ir.InvalidDefinitionError{
				Code:       ir.ErrMultipleInputs,
				Workflow:   name,
				Transition: t.Name,
				Message: fmt.Sprintf("A transition in StateMachine can only have one input. But the transition %q in StateMachine %q has %d inputs.",
					t.Name, name, len(t.Froms)),
			}
		}

		from := t.Froms[0]
		if seen[from][t.Name] {
			return &ir.InvalidDefinitionError{
				Code:       ir.ErrDuplicateFromName,
				Workflow:   name,
				Transition: t.Name,
				Place:      from,
				Message: fmt.Sprintf("A transition from a place/state must have an unique name. Multiple transitions named %q from place/state %q were found on StateMachine %q.",
					t.Name, from, name),
			}
		}
		if seen[from] == nil {
			seen[from] = make(map[string]bool)
		}
		seen[from][t.Name] = true
	}

	return nil
}

// SinglePlaceWorkflowValidator guards workflows whose marking store can hold
// a single place: no transition may produce more than one output (E213).
// The generic workflow rules are checked afterwards.
type SinglePlaceWorkflowValidator struct{}

// Validate implements Validator.
func (SinglePlaceWorkflowValidator) Validate(def *ir.Definition, name string) error {
	for _, t := range def.Transitions() {
		if len(t.Tos) > 1 {
			return &ir.InvalidDefinitionError{
				Code:       ir.ErrSinglePlaceOutputs,
				Workflow:   name,
				Transition: t.Name,
				Message: fmt.Sprintf("The marking store of workflow %q can not store many places. But the transition %q has too many output (%d). Only one is accepted.",
					name, t.Name, len(t.Tos)),
			}
		}
	}

	return WorkflowValidator{}.Validate(def, name)
}

// ValidatorFor picks the validator matching a workflow spec:
// state machines get StateMachineValidator, workflows backed by a
// single-state store get SinglePlaceWorkflowValidator, everything else the
// base WorkflowValidator.
func ValidatorFor(spec ir.WorkflowSpec) Validator {
	switch {
	case spec.IsStateMachine():
		return StateMachineValidator{}
	case spec.StoreKind() == ir.StoreSingleState:
		return SinglePlaceWorkflowValidator{}
	default:
		return WorkflowValidator{}
	}
}

// ValidateSpec builds the Definition of spec and runs the matching validator.
// Unknown types or store kinds are reported as CompileErrors.
func ValidateSpec(spec ir.WorkflowSpec) (*ir.Definition, error) {
	if spec.Type != "" && !ir.ValidTypes[spec.Type] {
		return nil, &CompileError{
			Field:   fmt.Sprintf("workflow.%s.type", spec.Name),
			Message: fmt.Sprintf("invalid type %q, must be %q or %q", spec.Type, ir.TypeWorkflow, ir.TypeStateMachine),
		}
	}
	if spec.MarkingStore != "" && !ir.ValidMarkingStores[spec.MarkingStore] {
		return nil, &CompileError{
			Field:   fmt.Sprintf("workflow.%s.marking_store", spec.Name),
			Message: fmt.Sprintf("invalid marking store %q, must be %q or %q", spec.MarkingStore, ir.StoreSingleState, ir.StoreMultipleState),
		}
	}

	def, err := spec.Definition()
	if err != nil {
		return nil, err
	}
	if err := ValidatorFor(spec).Validate(def, spec.Name); err != nil {
		return nil, err
	}
	return def, nil
}
