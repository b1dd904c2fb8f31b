package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldenTraces(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestFormatTrace(t *testing.T) {
	assert.Equal(t, "", FormatTrace(NewResult()))

	r := NewResult()
	r.addTrace("can %s -> %t", "publish", false)
	r.addTrace("final %s", "{}")
	assert.Equal(t, "can publish -> false\nfinal {}\n", FormatTrace(r))
}

func TestCompareTrace(t *testing.T) {
	tests := []struct {
		name      string
		want, got string
		report    string
	}{
		{"equal", "a\nb\n", "a\nb\n", ""},
		{"changed line", "a\nb\n", "a\nc\n", `line 2: want "b", got "c"`},
		{"extra line", "a\n", "a\nb\n", `line 2: unexpected "b"`},
		{"missing line", "a\nb\n", "a\n", `line 2: missing "b"`},
		{"newline only", "a\n", "a", "trailing newline differs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.report, CompareTrace(tt.want, tt.got))
		})
	}
}
