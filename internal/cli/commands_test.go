package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/store"
)

func TestApplyMarkingHistory(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "pay")
	require.NoError(t, err)
	assert.Equal(t, "✓ order-1: pay -> {paid}\n", out)

	out, err = execute(t, "--db", db, "marking", "-d", orderDef, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order/order-1 {paid} (version 2)\n", out)

	out, err = execute(t, "--db", db, "history", "order", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "1\t{new}\n2\t{paid}\n", out)
}

func TestApplyJSON(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "--format", "json", "apply", "-d", orderDef, "order-1", "pay")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "order", resp.Data.Workflow)
	assert.Equal(t, map[string]int{"paid": 1}, resp.Data.Marking.Places())
}

func TestApplyErrors(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "--format", "json", "apply", "-d", orderDef, "order-1", "refund")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, string(engine.ErrCodeUnknownTransition), resp.Error.Code)
	assert.Equal(t, `UNKNOWN_TRANSITION: Transition "refund" does not exist for workflow "order".`, resp.Error.Message)

	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "ship")
	require.Error(t, err)
	assert.True(t, engine.IsNotApplicable(err))
}

func TestCanUsesGuards(t *testing.T) {
	db := isolate(t)

	for _, subject := range []string{"order-1", "order-held"} {
		_, err := execute(t, "--db", db, "apply", "-d", orderDef, subject, "pay")
		require.NoError(t, err)
	}

	out, err := execute(t, "--db", db, "can", "-d", orderDef, "order-1", "ship")
	require.NoError(t, err)
	assert.Equal(t, "✓ order-1 can ship\n", out)

	out, err = execute(t, "--db", db, "can", "-d", orderDef, "order-held", "ship")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "✗ order-held cannot ship\n", out)

	out, err = execute(t, "--db", db, "enabled", "-d", orderDef, "order-held")
	require.NoError(t, err)
	assert.Equal(t, "cancel: paid -> cancelled\n", out)
}

func TestEnabledNewSubject(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "enabled", "-d", orderDef, "order-9")
	require.NoError(t, err)
	assert.Equal(t, "pay: new -> paid\ncancel: new -> cancelled\n", out)
}

func TestEnabledParallelWorkflow(t *testing.T) {
	db := isolate(t)

	_, err := execute(t, "--db", db, "apply", "-d", articleDef, "doc-1", "request_review")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "enabled", "-d", articleDef, "doc-1")
	require.NoError(t, err)

	var resp struct {
		Data EnabledResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	names := make([]string, len(resp.Data.Transitions))
	for i, tr := range resp.Data.Transitions {
		names[i] = tr.Name
	}
	assert.Equal(t, []string{"journalist_approval", "spellchecker_approval"}, names)
}

func TestMarkingList(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "marking", "-d", orderDef)
	require.NoError(t, err)
	assert.Equal(t, "No stored markings for order.\n", out)

	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-2", "pay")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "cancel")
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "marking", "-d", orderDef)
	require.NoError(t, err)
	assert.Equal(t, "order-1\t{cancelled}\t(version 2)\norder-2\t{paid}\t(version 2)\n", out)
}

func TestMarkingListInPlace(t *testing.T) {
	db := isolate(t)

	_, err := execute(t, "--db", db, "apply", "-d", orderDef, "order-2", "pay")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "cancel")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-3", "pay")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "marking", "-d", orderDef, "--in", "paid")
	require.NoError(t, err)
	assert.Equal(t, "order-2\t{paid}\t(version 2)\norder-3\t{paid}\t(version 2)\n", out)

	out, err = execute(t, "--db", db, "marking", "-d", orderDef, "--in", "shipped")
	require.NoError(t, err)
	assert.Equal(t, "No stored markings for order.\n", out)
}

func TestMarkingListStale(t *testing.T) {
	db := isolate(t)

	_, err := execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "pay")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "marking", "-d", orderDef, "--stale")
	require.NoError(t, err)
	assert.Equal(t, "No stored markings for order.\n", out)

	s, err := store.Open(db)
	require.NoError(t, err)
	_, err = s.DB().Exec("UPDATE markings SET definition_hash = 'old' WHERE subject_id = 'order-1'")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err = execute(t, "--db", db, "marking", "-d", orderDef, "--stale")
	require.NoError(t, err)
	assert.Equal(t, "order-1\t{paid}\t(version 2)\n", out)
}

func TestMarkingListUnknownPlace(t *testing.T) {
	db := isolate(t)

	_, err := execute(t, "--db", db, "marking", "-d", orderDef, "--in", "lost")
	require.Error(t, err)
	assert.Equal(t, 2, GetExitCode(err))
	assert.Contains(t, err.Error(), `place "lost" is not defined`)
}

func TestHistoryEmpty(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "history", "order", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "No history for order/nobody.\n", out)
}

func TestEnvFileSelectsDatabase(t *testing.T) {
	db := isolate(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("WORKFLOW_DB="+db+"\n"), 0o600))

	_, err := execute(t, "--env-file", envFile, "apply", "-d", orderDef, "order-1", "pay")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "history", "order", "order-1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestSubjectNew(t *testing.T) {
	out, err := execute(t, "subject", "new", "-n", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		id, err := uuid.Parse(line)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	}
	assert.NotEqual(t, lines[0], lines[1])

	_, err = execute(t, "subject", "new", "-n", "0")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.yaml")
	content := `workflows:
  loop:
    initial_place: a
    places: [a, b, c, orphan]
    transitions:
      - name: forward
        from: a
        to: b
      - name: back
        from: b
        to: a
      - name: finish
        from: b
        to: c
      - name: rescue
        from: orphan
        to: c
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := execute(t, "analyze", path)
	require.NoError(t, err)
	assert.Equal(t, `loop
  terminal places:    c
  unreachable places: orphan
  dead transitions:   rescue: orphan -> c
  cycles:             [a b]
`, out)
}

func TestDump(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "dump", "-d", orderDef)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")

	_, err = execute(t, "--db", db, "apply", "-d", orderDef, "order-1", "pay")
	require.NoError(t, err)

	svg := filepath.Join(t.TempDir(), "order.svg")
	_, err = execute(t, "--db", db, "dump", "-d", orderDef, "--subject", "order-1", "--as", "svg", "-o", svg)
	require.NoError(t, err)

	data, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestDumpUnknownFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, "dump", "-d", orderDef, "--as", "gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown graph format "gif"`)
}
