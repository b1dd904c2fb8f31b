package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CanResult reports whether a transition is enabled for a subject.
type CanResult struct {
	Workflow   string `json:"workflow"`
	Subject    string `json:"subject"`
	Transition string `json:"transition"`
	Can        bool   `json:"can"`
}

// NewCanCommand creates the can command.
func NewCanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkflowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "can <subject> <transition>",
		Short: "Check whether a transition is enabled for a subject",
		Long: `Check whether a transition is enabled for a subject.

Guards run as they would for apply, but nothing is written except the
initial marking of a new subject.

Exit codes:
  0 - The transition is enabled
  1 - The transition is not enabled, or does not exist
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCan(opts, args[0], args[1], cmd)
		},
	}

	addWorkflowFlags(cmd, opts)

	return cmd
}

func runCan(opts *WorkflowOptions, subject, transition string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts, false)
	if err != nil {
		return formatter.Report(err)
	}
	defer s.Close()

	ok, err := s.workflow.Can(commandContext(cmd), subjectRef(subject), transition)
	if err != nil {
		return formatter.Report(err)
	}

	result := CanResult{Workflow: s.workflow.Name(), Subject: subject, Transition: transition, Can: ok}
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if ok {
		fmt.Fprintf(formatter.Writer, "✓ %s can %s\n", subject, transition)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s cannot %s\n", subject, transition)
	}

	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("transition %q is not enabled", transition))
	}
	return nil
}
