package ir

import (
	"errors"
	"fmt"
)

// Definition error codes (E200-E219).
// E200-E209 are raised while building a Definition, E210-E219 by validators.
const (
	ErrUnknownPlace        = "E201" // transition references a place outside the place set
	ErrUnknownInitialPlace = "E202" // initial place is not in the place set
	ErrMalformedTransition = "E203" // transition without a name, inputs or outputs

	ErrMultipleOutputs    = "E210" // state machine transition with != 1 output
	ErrMultipleInputs     = "E211" // state machine transition with != 1 input
	ErrDuplicateFromName  = "E212" // state machine transition name repeated for the same from place
	ErrSinglePlaceOutputs = "E213" // single-place marking store with a multi-output transition
)

// InvalidDefinitionError reports a structural problem in a Definition.
//
// It is raised while building a Definition or while a validator checks one.
// It is never recoverable at runtime: the configuration has to be fixed.
type InvalidDefinitionError struct {
	// Code identifies the violated rule (E2xx).
	Code string

	// Workflow is the workflow name, when known.
	Workflow string

	// Transition is the offending transition name, when relevant.
	Transition string

	// Place is the offending place name, when relevant.
	Place string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	if e.Workflow != "" {
		return fmt.Sprintf("[%s] workflow %q: %s", e.Code, e.Workflow, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsInvalidDefinition returns true if err is, or wraps, an InvalidDefinitionError.
func IsInvalidDefinition(err error) bool {
	var de *InvalidDefinitionError
	return errors.As(err, &de)
}

// DefinitionErrorCode returns the code of a wrapped InvalidDefinitionError,
// or "" when err is not one.
func DefinitionErrorCode(err error) string {
	var de *InvalidDefinitionError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
