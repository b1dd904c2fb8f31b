package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// ValidationIssue is one problem found in a workflow definition.
type ValidationIssue struct {
	Workflow string `json:"workflow,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Workflows []string          `json:"workflows,omitempty"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate workflow definitions",
		Long: `Validate the workflows declared in a CUE package directory, a .cue file
or a YAML file.

Every workflow is built and checked by the validator matching its type
and marking store: state machines need exactly one input and one output
per transition, single-state workflows exactly one output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	specs, err := LoadSpecs(path)
	if err != nil {
		return formatter.Report(err)
	}

	formatter.VerboseLog("Found %d workflow(s) in %s", len(specs), path)

	result := ValidationResult{Valid: true}
	for _, spec := range specs {
		formatter.VerboseLog("Validating workflow: %s", spec.Name)
		result.Workflows = append(result.Workflows, spec.Name)
		if issue, ok := validateSpec(path, spec); !ok {
			result.Errors = append(result.Errors, issue)
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateSpec runs the validator chain for one spec.
func validateSpec(path string, spec ir.WorkflowSpec) (ValidationIssue, bool) {
	_, err := compiler.ValidateSpec(spec)
	if err == nil {
		return ValidationIssue{}, true
	}

	issue := ValidationIssue{Workflow: spec.Name, Message: err.Error()}
	var ce *compiler.CompileError
	var de *ir.InvalidDefinitionError
	switch {
	case errors.As(err, &de):
		issue.Code = de.Code
		issue.Message = de.Message
	case errors.As(err, &ce):
		le := convertLoadError(path, err)
		issue.Code = le.Code
		issue.Message = le.Message
		if le.Pos.IsValid() {
			issue.Line = le.Pos.Line()
		}
	default:
		issue.Code = ErrCodeGeneric
	}
	return issue, false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d workflow(s) valid\n", len(result.Workflows))
	for _, name := range result.Workflows {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

// outputValidationErrors outputs every validation issue.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range errs {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s (line %d)\n", issue.Workflow, issue.Line)
		} else {
			fmt.Fprintln(formatter.Writer, issue.Workflow)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return exitErr
}
