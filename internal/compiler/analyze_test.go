package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

func TestAnalyzeLinearDefinition(t *testing.T) {
	def, err := ir.NewDefinition(
		[]string{"a", "b", "c"},
		[]ir.Transition{
			ir.NewTransition("t1", []string{"a"}, []string{"b"}),
			ir.NewTransition("t2", []string{"b"}, []string{"c"}),
		},
		"a",
	)
	require.NoError(t, err)

	a := Analyze(def)
	assert.Empty(t, a.UnreachablePlaces)
	assert.Empty(t, a.DeadTransitions)
	assert.Equal(t, []string{"c"}, a.TerminalPlaces)
	assert.Empty(t, a.Cycles)
}

func TestAnalyzeJoinNeedsAllInputs(t *testing.T) {
	// "orphan" is never marked, so the join t2 can never fire.
	def, err := ir.NewDefinition(
		[]string{"a", "b", "orphan", "done"},
		[]ir.Transition{
			ir.NewTransition("t1", []string{"a"}, []string{"b"}),
			ir.NewTransition("t2", []string{"b", "orphan"}, []string{"done"}),
		},
		"a",
	)
	require.NoError(t, err)

	a := Analyze(def)
	assert.Equal(t, []string{"orphan", "done"}, a.UnreachablePlaces)
	require.Len(t, a.DeadTransitions, 1)
	assert.Equal(t, "t2", a.DeadTransitions[0].Name)
	assert.Equal(t, []string{"done"}, a.TerminalPlaces)
}

func TestAnalyzeParallelSplitAndJoin(t *testing.T) {
	def, err := ir.NewDefinition(
		[]string{"a", "b", "c", "d"},
		[]ir.Transition{
			ir.NewTransition("split", []string{"a"}, []string{"b", "c"}),
			ir.NewTransition("join", []string{"b", "c"}, []string{"d"}),
		},
		"a",
	)
	require.NoError(t, err)

	a := Analyze(def)
	assert.Empty(t, a.UnreachablePlaces)
	assert.Empty(t, a.DeadTransitions)
}

func TestAnalyzeCycles(t *testing.T) {
	def, err := ir.NewDefinition(
		[]string{"closed", "open", "broken"},
		[]ir.Transition{
			ir.NewTransition("open", []string{"closed"}, []string{"open"}),
			ir.NewTransition("close", []string{"open"}, []string{"closed"}),
			ir.NewTransition("kick", []string{"open"}, []string{"broken"}),
		},
		"closed",
	)
	require.NoError(t, err)

	a := Analyze(def)
	assert.Equal(t, [][]string{{"closed", "open"}}, a.Cycles)
	assert.Equal(t, []string{"broken"}, a.TerminalPlaces)
}

func TestAnalyzeWithoutInitialPlaceSkipsReachability(t *testing.T) {
	def, err := ir.NewDefinition(
		[]string{"a", "b"},
		[]ir.Transition{ir.NewTransition("t1", []string{"a"}, []string{"b"})},
		"",
	)
	require.NoError(t, err)

	a := Analyze(def)
	assert.Nil(t, a.UnreachablePlaces)
	assert.Nil(t, a.DeadTransitions)
	assert.Equal(t, []string{"b"}, a.TerminalPlaces)
}
