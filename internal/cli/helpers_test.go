package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/OxanaKozlova/workflow/internal/config"
)

var (
	orderDef   = filepath.Join("testdata", "order.cue")
	articleDef = filepath.Join("testdata", "article.yaml")
	invalidDef = filepath.Join("testdata", "invalid.yaml")
)

// isolate keeps tests away from the caller's environment and returns a
// fresh database path.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvDB, config.EnvAMQPURL, config.EnvAMQPExchange} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv(config.EnvLogLevel, "error")
	return filepath.Join(t.TempDir(), "workflow.db")
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
