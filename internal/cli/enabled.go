package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// EnabledResult lists the transitions enabled for a subject.
type EnabledResult struct {
	Workflow    string          `json:"workflow"`
	Subject     string          `json:"subject"`
	Transitions []ir.Transition `json:"transitions"`
}

// NewEnabledCommand creates the enabled command.
func NewEnabledCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkflowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "enabled <subject>",
		Short:         "List the transitions enabled for a subject",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnabled(opts, args[0], cmd)
		},
	}

	addWorkflowFlags(cmd, opts)

	return cmd
}

func runEnabled(opts *WorkflowOptions, subject string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return formatter.Report(err)
	}
	defer s.Close()

	transitions, err := s.workflow.EnabledTransitions(commandContext(cmd), subjectRef(subject))
	if err != nil {
		return formatter.Report(err)
	}
	if transitions == nil {
		transitions = []ir.Transition{}
	}

	result := EnabledResult{Workflow: s.workflow.Name(), Subject: subject, Transitions: transitions}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(transitions) == 0 {
		fmt.Fprintf(formatter.Writer, "No transitions enabled for %s.\n", subject)
		return nil
	}
	for _, t := range transitions {
		fmt.Fprintln(formatter.Writer, t)
	}
	return nil
}
