package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/engine"
)

// NewSubjectCommand creates the subject command group.
func NewSubjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Subject helpers",
	}

	var count int
	newCmd := &cobra.Command{
		Use:           "new",
		Short:         "Print new time-ordered subject ids (UUIDv7)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubjectNew(rootOpts, count, cmd)
		},
	}
	newCmd.Flags().IntVarP(&count, "count", "n", 1, "number of ids")

	cmd.AddCommand(newCmd)
	return cmd
}

func runSubjectNew(opts *RootOptions, count int, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if count < 1 {
		return formatter.Report(fmt.Errorf("count must be at least 1, got %d", count))
	}

	var gen engine.UUIDv7Generator
	ids := make([]string, count)
	for i := range ids {
		ids[i] = gen.Generate()
	}

	if formatter.Format == "json" {
		return formatter.Success(ids)
	}
	for _, id := range ids {
		fmt.Fprintln(formatter.Writer, id)
	}
	return nil
}
