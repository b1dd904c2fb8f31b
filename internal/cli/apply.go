package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// ApplyResult is the outcome of an applied transition.
type ApplyResult struct {
	Workflow   string     `json:"workflow"`
	Subject    string     `json:"subject"`
	Transition string     `json:"transition"`
	Marking    ir.Marking `json:"marking"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkflowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <subject> <transition>",
		Short: "Apply a transition to a subject",
		Long: `Apply a transition to a subject and store the new marking.

Guard expressions from the definition decide whether the transition is
enabled. Each step is logged, and when WORKFLOW_AMQP_URL is set every
leave, transition, enter and announce event is published to the
WORKFLOW_AMQP_EXCHANGE topic exchange with the event name as routing key.

Exit codes:
  0 - Transition applied
  1 - Unknown transition, transition not enabled, or guard failure
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	addWorkflowFlags(cmd, opts)

	return cmd
}

func runApply(opts *WorkflowOptions, subject, transition string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, true)
	if err != nil {
		return formatter.Report(err)
	}
	defer s.Close()

	m, err := s.workflow.Apply(commandContext(cmd), subjectRef(subject), transition)
	if err != nil {
		return formatter.Report(err)
	}

	result := ApplyResult{Workflow: s.workflow.Name(), Subject: subject, Transition: transition, Marking: m}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %s -> %s\n", subject, transition, m)
	return nil
}
