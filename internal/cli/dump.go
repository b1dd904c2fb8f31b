package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/dumper"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	WorkflowOptions
	Subject string // highlight this subject's stored marking
	Output  string // output file; stdout when empty
	As      string // dot | svg | png
	RankDir string
	Font    string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{WorkflowOptions: WorkflowOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Render a workflow with Graphviz",
		Long: `Render a workflow as DOT, SVG or PNG.

Workflows are drawn as Petri nets with box transitions; state machines as
places joined by labelled edges. With --subject the places holding the
subject's stored tokens are highlighted.

Examples:
  workflow dump -d article.yaml > article.dot
  workflow dump -d specs/ -w order --as svg -o order.svg
  workflow dump -d specs/ -w order --subject 0190... --as png -o order.png`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	addWorkflowFlags(cmd, &opts.WorkflowOptions)
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "highlight the stored marking of this subject")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.As, "as", "dot", "graph format (dot|svg|png)")
	cmd.Flags().StringVar(&opts.RankDir, "rankdir", dumper.LeftToRight, "layout direction (LR|TB)")
	cmd.Flags().StringVar(&opts.Font, "font", "", "font name")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := dumper.ParseFormat(opts.As)
	if err != nil {
		return formatter.Report(err)
	}

	spec, err := LoadSpec(opts.Definition, opts.Workflow)
	if err != nil {
		return formatter.Report(err)
	}
	def, err := compiler.ValidateSpec(spec)
	if err != nil {
		return formatter.Report(err)
	}

	var marking ir.Marking
	if opts.Subject != "" {
		if marking, err = storedMarking(commandContext(cmd), opts.RootOptions, spec.Name, opts.Subject); err != nil {
			return formatter.Report(err)
		}
	}

	style := dumper.WorkflowStyle
	if spec.IsStateMachine() {
		style = dumper.StateMachineStyle
	}
	d := dumper.New(style, dumper.Config{
		Font:    opts.Font,
		RankDir: opts.RankDir,
		Format:  format,
		Marking: marking,
	})

	var out io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return formatter.Report(&LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
		}
		defer f.Close()
		out = f
	}

	if err := d.Dump(out, def); err != nil {
		return formatter.Report(fmt.Errorf("render %s: %w", spec.Name, err))
	}
	if opts.Output != "" {
		formatter.VerboseLog("Wrote %s", opts.Output)
	}
	return nil
}

// storedMarking reads a subject's marking straight from the database.
func storedMarking(ctx context.Context, opts *RootOptions, workflow, subject string) (ir.Marking, error) {
	st, err := openStore(opts)
	if err != nil {
		return ir.Marking{}, err
	}
	defer st.Close()

	rec, _, err := st.Lookup(ctx, workflow, subject)
	if err != nil {
		return ir.Marking{}, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	return rec.Marking, nil
}
