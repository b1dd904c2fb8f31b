package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/listener"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure, failed scenario, transition not applicable
	ExitCommandError = 2 // Command error (invalid paths, database errors, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", "TRANSITION_NOT_APPLICABLE", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ErrorDetails locates a workflow error for JSON consumers.
type ErrorDetails struct {
	Workflow   string `json:"workflow,omitempty"`
	Transition string `json:"transition,omitempty"`
	Place      string `json:"place,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// String renders the non-empty fields as key=value pairs.
func (d *ErrorDetails) String() string {
	var parts []string
	for _, kv := range [][2]string{
		{"workflow", d.Workflow},
		{"transition", d.Transition},
		{"place", d.Place},
		{"expression", d.Expression},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, " ")
}

// Report writes err through the formatter and returns the matching
// ExitError. Definition and logic errors are failures (exit 1); everything
// else is a command error (exit 2).
func (f *OutputFormatter) Report(err error) error {
	code, exit, details := classify(err)
	var payload any
	if details != nil {
		// a nil *ErrorDetails would still encode as "details": null
		payload = details
	}
	_ = f.Error(code, err.Error(), payload)
	return WrapExitError(exit, code, err)
}

func classify(err error) (string, int, *ErrorDetails) {
	var loadErr *LoadError
	var defErr *ir.InvalidDefinitionError
	var logicErr *engine.LogicError
	var guardErr *listener.GuardError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code, ExitCommandError, nil
	case errors.As(err, &defErr):
		return defErr.Code, ExitFailure, &ErrorDetails{
			Workflow:   defErr.Workflow,
			Transition: defErr.Transition,
			Place:      defErr.Place,
		}
	case errors.As(err, &logicErr):
		return string(logicErr.Code), ExitFailure, &ErrorDetails{
			Workflow:   logicErr.Workflow,
			Transition: logicErr.Transition,
			Place:      logicErr.Place,
		}
	case errors.As(err, &guardErr):
		return ErrCodeGuard, ExitFailure, &ErrorDetails{
			Workflow:   guardErr.Workflow,
			Transition: guardErr.Transition,
			Expression: guardErr.Expression,
		}
	default:
		return ErrCodeGeneric, ExitCommandError, nil
	}
}
