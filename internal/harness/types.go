package harness

import (
	"fmt"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace is the human-readable trace: one line per step, followed by the
	// events that step dispatched, indented by two spaces.
	Trace []string `json:"trace"`

	// Errors lists the failed expectations. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalMarking is the stored marking after the last step.
	FinalMarking ir.Marking `json:"final_marking"`

	// History is the number of marking_log rows written for the subject.
	History int `json:"history"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []string{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

func (r *Result) addTrace(format string, args ...any) {
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}
