package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <workflow> <subject>",
		Short: "Show every marking stored for a subject",
		Long: `Show the marking log of a subject, oldest first.

Each entry records the marking, its hash, and the hash of the definition
that produced it.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, workflow, subject string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openStore(opts)
	if err != nil {
		return formatter.Report(err)
	}
	defer st.Close()

	entries, err := st.History(commandContext(cmd), workflow, subject)
	if err != nil {
		return formatter.Report(&LoadError{Code: ErrCodeStore, Message: err.Error()})
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(formatter.Writer, "No history for %s/%s.\n", workflow, subject)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%d\t%s\n", e.Seq, e.Marking)
		formatter.VerboseLog("  id=%s marking_hash=%s definition_hash=%s", e.ID, e.MarkingHash, e.DefinitionHash)
	}
	return nil
}
