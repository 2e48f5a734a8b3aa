package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nestedTree builds:
//
//	root: H0, [sub: X0, [deep: CNOT0,1], Y1], Z1
func nestedTree(t *testing.T) *Composite {
	t.Helper()
	deep := NewComposite("deep")
	require.NoError(t, deep.AddInstruction(NewGate("CNOT", []int{0, 1})))
	sub := NewComposite("sub")
	require.NoError(t, sub.AddInstructions(NewGate("X", []int{0}), deep, NewGate("Y", []int{1})))
	root := NewComposite("root")
	require.NoError(t, root.AddInstructions(NewGate("H", []int{0}), sub, NewGate("Z", []int{1})))
	return root
}

func TestIteratorPreOrderYieldsEveryNode(t *testing.T) {
	root := nestedTree(t)

	var names []string
	it := NewIterator(root)
	for it.HasNext() {
		names = append(names, it.Next().Name())
	}

	assert.Equal(t, []string{"H", "sub", "X", "deep", "CNOT", "Y", "Z"}, names)
	assert.Nil(t, it.Next())
	assert.False(t, it.HasNext())
}

func TestIteratorElementaryOrder(t *testing.T) {
	root := nestedTree(t)

	var names []string
	for inst := range Elementary(root) {
		names = append(names, inst.Name())
	}

	assert.Equal(t, []string{"H", "X", "CNOT", "Y", "Z"}, names)
}

func TestIteratorSkipsDisabledLeavesOnlyWhenFiltered(t *testing.T) {
	root := nestedTree(t)
	x := AsComposite(root.Instructions()[1]).Instructions()[0]
	x.Disable()

	all := 0
	for range All(root) {
		all++
	}
	elementary := 0
	for range Elementary(root) {
		elementary++
	}

	assert.Equal(t, 7, all)
	assert.Equal(t, 4, elementary)
}

func TestIteratorIsRestartable(t *testing.T) {
	root := nestedTree(t)
	before := root.String()

	first := NewIterator(root)
	for first.HasNext() {
		first.Next()
	}
	second := NewIterator(root)
	require.True(t, second.HasNext())
	assert.Equal(t, "H", second.Next().Name())
	assert.Equal(t, before, root.String())
}

func TestIteratorEmptyAndNil(t *testing.T) {
	assert.False(t, NewIterator(NewComposite("empty")).HasNext())
	assert.False(t, NewIterator(nil).HasNext())

	empty := NewComposite("empty")
	root := NewComposite("root")
	require.NoError(t, root.AddInstructions(empty, NewGate("H", []int{0})))

	var names []string
	for inst := range All(root) {
		names = append(names, inst.Name())
	}
	assert.Equal(t, []string{"empty", "H"}, names)
}

func TestAllStopsEarly(t *testing.T) {
	root := nestedTree(t)
	n := 0
	for range All(root) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestWalkStopsOnError(t *testing.T) {
	root := nestedTree(t)
	visited := 0
	err := Walk(root, func(inst Instruction) error {
		visited++
		if inst.Name() == "deep" {
			return assert.AnError
		}
		return nil
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 4, visited)
}
