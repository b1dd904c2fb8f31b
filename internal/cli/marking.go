package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/queryir"
	"github.com/OxanaKozlova/workflow/internal/store"
)

// MarkingResult is the marking of one subject.
type MarkingResult struct {
	Workflow string     `json:"workflow"`
	Subject  string     `json:"subject"`
	Marking  ir.Marking `json:"marking"`
	Version  int64      `json:"version"`
}

// NewMarkingCommand creates the marking command.
func NewMarkingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkflowOptions{RootOptions: rootOpts}
	var places []string
	var stale bool

	cmd := &cobra.Command{
		Use:   "marking [subject]",
		Short: "Show the marking of a subject, or of every stored subject",
		Long: `Show where a subject currently is in a workflow.

A subject without a stored marking is placed in the initial place, and
that marking is saved. Without a subject, every stored marking of the
workflow is listed; --in narrows the list to subjects holding a token in
every given place, and --stale to subjects last written under a different
version of the definition.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runMarkingList(opts, places, stale, cmd)
			}
			return runMarking(opts, args[0], cmd)
		},
	}

	addWorkflowFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&places, "in", nil, "Only list subjects marked in these places")
	cmd.Flags().BoolVar(&stale, "stale", false, "Only list subjects stored under an older definition")

	return cmd
}

func runMarking(opts *WorkflowOptions, subject string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return formatter.Report(err)
	}
	defer s.Close()

	m, err := s.workflow.GetMarking(ctx, subjectRef(subject))
	if err != nil {
		return formatter.Report(err)
	}
	rec, _, err := s.store.Lookup(ctx, s.workflow.Name(), subject)
	if err != nil {
		return formatter.Report(&LoadError{Code: ErrCodeStore, Message: err.Error()})
	}

	result := MarkingResult{Workflow: s.workflow.Name(), Subject: subject, Marking: m, Version: rec.Version}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s/%s %s (version %d)\n", result.Workflow, result.Subject, result.Marking, result.Version)
	return nil
}

func runMarkingList(opts *WorkflowOptions, places []string, stale bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return formatter.Report(err)
	}
	defer s.Close()

	for _, p := range places {
		if !s.def.HasPlace(p) {
			return formatter.Report(&LoadError{Code: ErrCodePlaces, Message: fmt.Sprintf("place %q is not defined in %s", p, s.workflow.Name())})
		}
	}

	filter := queryir.InPlaces(s.workflow.Name(), places...)
	if stale {
		hash, err := ir.DefinitionHash(s.def)
		if err != nil {
			return formatter.Report(err)
		}
		filter = queryir.And{Predicates: []queryir.Predicate{
			filter,
			queryir.Not{Predicate: queryir.Equals{Field: queryir.FieldDefinitionHash, Value: hash}},
		}}
	}

	query := queryir.Select{Filter: filter}
	records, err := s.store.Find(commandContext(cmd), query)
	if err != nil {
		return formatter.Report(&LoadError{Code: ErrCodeStore, Message: err.Error()})
	}
	if records == nil {
		records = []store.Record{}
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}
	if len(records) == 0 {
		fmt.Fprintf(formatter.Writer, "No stored markings for %s.\n", s.workflow.Name())
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(formatter.Writer, "%s\t%s\t(version %d)\n", r.SubjectID, r.Marking, r.Version)
	}
	return nil
}
