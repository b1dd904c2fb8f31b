package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// LoadError represents an error that occurred while loading definitions.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads every workflow spec found at path: a CUE package
// directory, a .cue file or a YAML file.
func LoadSpecs(path string) ([]ir.WorkflowSpec, error) {
	specs, err := compiler.Load(path)
	if err != nil {
		return nil, convertLoadError(path, err)
	}
	return specs, nil
}

// LoadSpec loads path and selects the workflow called name. An empty name
// is accepted when path defines a single workflow.
func LoadSpec(path, name string) (ir.WorkflowSpec, error) {
	specs, err := LoadSpecs(path)
	if err != nil {
		return ir.WorkflowSpec{}, err
	}
	spec, err := compiler.SelectWorkflow(specs, name)
	if err != nil {
		return ir.WorkflowSpec{}, convertLoadError(path, err)
	}
	return spec, nil
}

// convertLoadError converts a compiler or filesystem error to a LoadError
// with position info.
func convertLoadError(path string, err error) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition not found: %s", path)}
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", path, err)}
}

// Error code constants - unified across all CLI commands. Definition
// errors use the E2xx codes of package ir; engine errors use their
// LogicError code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUnsupported = "E003" // Unsupported definition file
	ErrCodeLoadFailed  = "E004" // CUE or YAML parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWorkflow    = "E006" // Workflow missing or ambiguous
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Invalid configuration
	ErrCodeStore       = "E009" // Marking store error

	// Definition shape errors
	ErrCodePlaces      = "E101" // Missing or malformed places
	ErrCodeTransitions = "E102" // Malformed transition entry
	ErrCodeType        = "E103" // Invalid workflow type or store kind

	ErrCodeGuard = "E301" // Guard expression failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "file":
		return ErrCodeUnsupported
	case field == "cue" || field == "yaml":
		return ErrCodeLoadFailed
	case field == "workflow" || field == "workflows":
		return ErrCodeWorkflow
	case strings.HasSuffix(field, ".places"):
		return ErrCodePlaces
	case strings.Contains(field, ".transitions"):
		return ErrCodeTransitions
	case strings.HasSuffix(field, ".type"), strings.HasSuffix(field, ".marking_store"):
		return ErrCodeType
	default:
		return ErrCodeGeneric
	}
}
