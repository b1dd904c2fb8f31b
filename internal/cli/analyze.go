package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// WorkflowAnalysis is the analysis of one workflow.
type WorkflowAnalysis struct {
	Workflow string `json:"workflow"`
	compiler.Analysis
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	var workflow string

	cmd := &cobra.Command{
		Use:   "analyze <definition>",
		Short: "Report unreachable places, dead transitions and cycles",
		Long: `Analyze the structure of each workflow in a definition.

Reports places that cannot be reached from the initial place, transitions
that can never fire, places without outgoing transitions, and cycles.
Findings are informational; the exit code is 0 unless loading fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, args[0], workflow, cmd)
		},
	}

	cmd.Flags().StringVarP(&workflow, "workflow", "w", "", "analyze only this workflow")

	return cmd
}

func runAnalyze(opts *RootOptions, path, workflow string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	specs, err := LoadSpecs(path)
	if err != nil {
		return formatter.Report(err)
	}
	if workflow != "" {
		spec, err := compiler.SelectWorkflow(specs, workflow)
		if err != nil {
			return formatter.Report(convertLoadError(path, err))
		}
		specs = []ir.WorkflowSpec{spec}
	}

	results := make([]WorkflowAnalysis, 0, len(specs))
	for _, spec := range specs {
		def, err := compiler.ValidateSpec(spec)
		if err != nil {
			return formatter.Report(err)
		}
		results = append(results, WorkflowAnalysis{Workflow: spec.Name, Analysis: compiler.Analyze(def)})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	for _, r := range results {
		writeAnalysis(formatter.Writer, r)
	}
	return nil
}

func writeAnalysis(w io.Writer, r WorkflowAnalysis) {
	fmt.Fprintln(w, r.Workflow)
	fmt.Fprintf(w, "  terminal places:    %s\n", listOrNone(r.TerminalPlaces))
	fmt.Fprintf(w, "  unreachable places: %s\n", listOrNone(r.UnreachablePlaces))

	dead := make([]string, len(r.DeadTransitions))
	for i, t := range r.DeadTransitions {
		dead[i] = t.String()
	}
	fmt.Fprintf(w, "  dead transitions:   %s\n", listOrNone(dead))

	cycles := make([]string, len(r.Cycles))
	for i, c := range r.Cycles {
		cycles[i] = "[" + strings.Join(c, " ") + "]"
	}
	fmt.Fprintf(w, "  cycles:             %s\n", listOrNone(cycles))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
