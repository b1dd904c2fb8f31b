package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden traces live, relative to the test package.
const GoldenDir = "testdata/golden"

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. Run with -update to regenerate.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's trace against the golden file named
// name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(FormatTrace(result)))
}

// FormatTrace renders the trace one line per entry, newline terminated.
func FormatTrace(result *Result) string {
	if len(result.Trace) == 0 {
		return ""
	}
	return strings.Join(result.Trace, "\n") + "\n"
}

// CompareTrace reports the first line where got departs from the golden
// trace want, or "" when they are equal.
func CompareTrace(want, got string) string {
	if want == got {
		return ""
	}
	wantLines := strings.Split(strings.TrimSuffix(want, "\n"), "\n")
	gotLines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	for i := 0; i < len(wantLines) || i < len(gotLines); i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		switch {
		case i >= len(wantLines):
			return fmt.Sprintf("line %d: unexpected %q", i+1, g)
		case i >= len(gotLines):
			return fmt.Sprintf("line %d: missing %q", i+1, w)
		case w != g:
			return fmt.Sprintf("line %d: want %q, got %q", i+1, w, g)
		}
	}
	return "trailing newline differs"
}
