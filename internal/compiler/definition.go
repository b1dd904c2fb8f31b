package compiler

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// CompileWorkflows parses every workflow declared under the top-level
// "workflow" field of a CUE value:
//
//	workflow: article: {
//		type:          "workflow"
//		initial_place: "draft"
//		places: ["draft", "review", "published"]
//		transitions: [
//			{name: "to_review", from: "draft", to: "review"},
//			{name: "publish", from: ["review"], to: ["published"], guard: "marked(\"review\")"},
//		]
//	}
//
// Specs are returned sorted by workflow name.
func CompileWorkflows(v cue.Value) ([]ir.WorkflowSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	workflowsVal := v.LookupPath(cue.ParsePath("workflow"))
	if !workflowsVal.Exists() {
		return nil, &CompileError{
			Field:   "workflow",
			Message: "no workflow declared",
			Pos:     v.Pos(),
		}
	}

	iter, err := workflowsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.WorkflowSpec
	for iter.Next() {
		spec, err := CompileWorkflow(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// CompileWorkflow parses a single workflow struct into a WorkflowSpec.
// The workflow name is the last label of the value's path.
//
// Only the shape is checked here; structural rules are enforced when the
// Definition is built (ir.NewDefinition) and validated (ValidateSpec).
func CompileWorkflow(v cue.Value) (*ir.WorkflowSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.WorkflowSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Type, err = optionalString(v, "type", ir.TypeWorkflow); err != nil {
		return nil, err
	}
	if spec.MarkingStore, err = optionalString(v, "marking_store", ""); err != nil {
		return nil, err
	}
	if spec.InitialPlace, err = optionalString(v, "initial_place", ""); err != nil {
		return nil, err
	}

	placesVal := v.LookupPath(cue.ParsePath("places"))
	if !placesVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("workflow.%s.places", spec.Name),
			Message: "places are required",
			Pos:     v.Pos(),
		}
	}
	if spec.Places, err = parseStringList(placesVal, fmt.Sprintf("workflow.%s.places", spec.Name)); err != nil {
		return nil, err
	}

	if spec.Transitions, err = parseTransitions(v, spec.Name); err != nil {
		return nil, err
	}

	if spec.Metadata, err = parseMetadata(v); err != nil {
		return nil, err
	}

	return spec, nil
}

// parseTransitions parses the ordered transition list.
func parseTransitions(v cue.Value, workflow string) ([]ir.TransitionSpec, error) {
	transitionsVal := v.LookupPath(cue.ParsePath("transitions"))
	if !transitionsVal.Exists() {
		return nil, nil
	}

	iter, err := transitionsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var transitions []ir.TransitionSpec
	for i := 0; iter.Next(); i++ {
		tv := iter.Value()
		field := fmt.Sprintf("workflow.%s.transitions[%d]", workflow, i)

		nameVal := tv.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{Field: field + ".name", Message: "transition name is required", Pos: tv.Pos()}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		t := ir.TransitionSpec{Name: name}
		if t.From, err = requiredStringList(tv, "from", field); err != nil {
			return nil, err
		}
		if t.To, err = requiredStringList(tv, "to", field); err != nil {
			return nil, err
		}
		if t.Guard, err = optionalString(tv, "guard", ""); err != nil {
			return nil, err
		}

		transitions = append(transitions, t)
	}

	return transitions, nil
}

func requiredStringList(v cue.Value, name, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	return parseStringList(fv, field+"."+name)
}

// parseStringList accepts either a single string or a list of strings.
func parseStringList(v cue.Value, field string) ([]string, error) {
	if s, err := v.String(); err == nil {
		return []string{s}, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a string or a list of strings", Pos: v.Pos()}
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "list entries must be strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, name, def string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return def, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func parseMetadata(v cue.Value) (map[string]string, error) {
	metaVal := v.LookupPath(cue.ParsePath("metadata"))
	if !metaVal.Exists() {
		return nil, nil
	}

	iter, err := metaVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	meta := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: "metadata." + iter.Label(), Message: "metadata values must be strings", Pos: iter.Value().Pos()}
		}
		meta[iter.Label()] = s
	}
	return meta, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
