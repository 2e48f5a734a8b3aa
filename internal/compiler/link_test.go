package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/testutil"
)

func call(target string) *ir.Composite {
	c := ir.NewComposite(target)
	c.SetTag(TagCall)
	return c
}

func TestLinkEmpty(t *testing.T) {
	assert.NoError(t, Link(nil))
}

func TestLinkResolvesTransitively(t *testing.T) {
	prep := testutil.Circuit(t, "prep", "H 0")
	entangle := testutil.Circuit(t, "entangle")
	require.NoError(t, entangle.AddInstructions(call("prep"), testutil.Gate(t, nil, "CNOT 0 1")))
	bell := testutil.Circuit(t, "bell")
	require.NoError(t, bell.AddInstructions(call("entangle"), testutil.Gate(t, nil, "Measure 0")))

	// Callers listed before callees.
	require.NoError(t, Link([]*ir.Composite{bell, entangle, prep}))

	assert.Equal(t, []string{"H 0", "CNOT 0 1", "Measure 0"}, testutil.Names(bell))
	assert.Equal(t, []string{"H 0", "CNOT 0 1"}, testutil.Names(entangle))

	first, err := bell.Instruction(0)
	require.NoError(t, err)
	assert.Equal(t, "entangle", first.Name())
	assert.NotEqual(t, TagCall, ir.AsComposite(first).Tag())
	assert.NotSame(t, entangle, ir.AsComposite(first), "callers hold copies")
}

func TestLinkNestedCallAndDisabled(t *testing.T) {
	prep := testutil.Circuit(t, "prep", "X 0")
	outer := ir.NewComposite("outer")
	inner := ir.NewComposite("inner")
	disabled := call("prep")
	disabled.Disable()
	require.NoError(t, inner.AddInstructions(call("prep"), disabled))
	require.NoError(t, outer.AddInstruction(inner))

	require.NoError(t, Link([]*ir.Composite{outer, prep}))

	first, err := inner.Instruction(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"X 0"}, testutil.Names(ir.AsComposite(first)))

	second, err := inner.Instruction(1)
	require.NoError(t, err)
	assert.False(t, second.IsEnabled())
	assert.Equal(t, 1, ir.AsComposite(second).NInstructions())
}

func TestLinkUnknownCall(t *testing.T) {
	c := ir.NewComposite("c")
	require.NoError(t, c.AddInstruction(call("missing")))

	err := Link([]*ir.Composite{c})
	require.ErrorIs(t, err, ErrUnknownCall)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "c", callErr.Circuit)
	assert.Equal(t, "missing", callErr.Target)
}

func TestLinkSelfCycle(t *testing.T) {
	a := ir.NewComposite("a")
	require.NoError(t, a.AddInstruction(call("a")))

	err := Link([]*ir.Composite{a})
	require.ErrorIs(t, err, ErrCallCycle)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "a"}, cycleErr.Path)
}

func TestLinkMutualCycleLeavesCircuitsUntouched(t *testing.T) {
	a := ir.NewComposite("a")
	b := ir.NewComposite("b")
	c := testutil.Circuit(t, "c", "H 0")
	require.NoError(t, a.AddInstruction(call("b")))
	require.NoError(t, b.AddInstructions(call("a"), call("c")))

	err := Link([]*ir.Composite{c, b, a})

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Path)
	assert.Contains(t, err.Error(), "a → b → a")

	first, err := b.Instruction(1)
	require.NoError(t, err)
	assert.Equal(t, TagCall, ir.AsComposite(first).Tag())
}

func TestFindCyclesDAG(t *testing.T) {
	graph := callGraph{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {},
	}
	assert.Empty(t, findCycles(graph))
}

func TestFindCyclesMultiple(t *testing.T) {
	graph := callGraph{
		"x": {"y"},
		"y": {"x"},
		"a": {"a"},
		"m": {},
	}
	assert.Equal(t, [][]string{{"a", "a"}, {"x", "y", "x"}}, findCycles(graph))
}
