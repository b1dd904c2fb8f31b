// Command workflow checks, renders and drives Petri-net workflows and
// state machines whose markings are kept in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/OxanaKozlova/workflow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
