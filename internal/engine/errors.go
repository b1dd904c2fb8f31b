package engine

import (
	"errors"
	"fmt"
)

// LogicError reports a misuse of a workflow against the current state of a
// subject: an unknown transition, a transition that is not enabled, or a
// marking that does not fit the definition.
//
// The error is fatal to the operation that raised it, not to the Workflow.
type LogicError struct {
	// Code identifies the error category.
	Code LogicErrorCode

	// Message is a human-readable description.
	Message string

	// Workflow is the workflow name.
	Workflow string

	// Transition is the requested transition name, when relevant.
	Transition string

	// Place is the offending place, when relevant.
	Place string
}

// LogicErrorCode categorizes logic errors.
type LogicErrorCode string

const (
	// ErrCodeEmptyMarking indicates an empty marking and no initial place.
	ErrCodeEmptyMarking LogicErrorCode = "EMPTY_MARKING"

	// ErrCodeInvalidPlace indicates a marked place outside the definition.
	ErrCodeInvalidPlace LogicErrorCode = "INVALID_PLACE"

	// ErrCodeUnknownTransition indicates no transition has the requested name.
	ErrCodeUnknownTransition LogicErrorCode = "UNKNOWN_TRANSITION"

	// ErrCodeNotApplicable indicates no transition with the name is enabled.
	ErrCodeNotApplicable LogicErrorCode = "TRANSITION_NOT_APPLICABLE"
)

// Error implements the error interface.
func (e *LogicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrUnsupportedSubject is returned by the built-in marking stores when the
// subject does not implement the accessor interface they need.
var ErrUnsupportedSubject = errors.New("subject does not support this marking store")

// ErrTooManyPlaces is returned by SingleStateMarkingStore when asked to
// store a marking with more than one token.
var ErrTooManyPlaces = errors.New("single-state marking store can hold exactly one token")

// LogicErrorCodeOf returns the code of a wrapped LogicError, or "".
func LogicErrorCodeOf(err error) LogicErrorCode {
	var le *LogicError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsLogicError returns true if err wraps a LogicError.
func IsLogicError(err error) bool {
	var le *LogicError
	return errors.As(err, &le)
}

// IsUnknownTransition returns true if the transition name does not exist.
// Uses errors.As to handle wrapped errors.
func IsUnknownTransition(err error) bool {
	return LogicErrorCodeOf(err) == ErrCodeUnknownTransition
}

// IsNotApplicable returns true if the transition exists but is not enabled.
func IsNotApplicable(err error) bool {
	return LogicErrorCodeOf(err) == ErrCodeNotApplicable
}

func newEmptyMarkingError(workflow string) *LogicError {
	return &LogicError{
		Code:     ErrCodeEmptyMarking,
		Message:  fmt.Sprintf("The Marking is empty and there is no initial place for workflow %q.", workflow),
		Workflow: workflow,
	}
}

func newInvalidPlaceError(workflow, place string, noPlaces bool) *LogicError {
	msg := fmt.Sprintf("Place %q is not valid for workflow %q.", place, workflow)
	if noPlaces {
		msg += " It seems you forgot to add places to the current workflow."
	}
	return &LogicError{
		Code:     ErrCodeInvalidPlace,
		Message:  msg,
		Workflow: workflow,
		Place:    place,
	}
}

func newUnknownTransitionError(workflow, transition string) *LogicError {
	return &LogicError{
		Code:       ErrCodeUnknownTransition,
		Message:    fmt.Sprintf("Transition %q does not exist for workflow %q.", transition, workflow),
		Workflow:   workflow,
		Transition: transition,
	}
}

func newNotApplicableError(workflow, transition string) *LogicError {
	return &LogicError{
		Code:       ErrCodeNotApplicable,
		Message:    fmt.Sprintf("Unable to apply transition %q for workflow %q.", transition, workflow),
		Workflow:   workflow,
		Transition: transition,
	}
}
