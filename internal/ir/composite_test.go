package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInstructionRejectsDuplicate(t *testing.T) {
	c := NewComposite("ansatz")
	h := NewGate("H", []int{0})

	require.NoError(t, c.AddInstruction(h))
	err := c.AddInstruction(h)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateInstruction))
	assert.True(t, IsDuplicateError(err))
	assert.Equal(t, 1, c.NInstructions(), "second add must not change the child count")
}

func TestAddInstructionAllowsEqualButDistinctObjects(t *testing.T) {
	c := NewComposite("ansatz")

	require.NoError(t, c.AddInstruction(NewGate("H", []int{0})))
	require.NoError(t, c.AddInstruction(NewGate("H", []int{0})))

	assert.Equal(t, 2, c.NInstructions())
}

func TestInstructionIndexBounds(t *testing.T) {
	c := NewComposite("c")
	require.NoError(t, c.AddInstructions(NewGate("H", []int{0}), NewGate("X", []int{1})))
	n := c.NInstructions()

	_, err := c.Instruction(n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.True(t, IsIndexError(err))

	last, err := c.Instruction(n - 1)
	require.NoError(t, err)
	assert.Equal(t, "X", last.Name())

	_, err = c.Instruction(-1)
	assert.True(t, IsIndexError(err))
}

func TestIndexedMutationsOnEmptyComposite(t *testing.T) {
	c := NewComposite("empty")
	g := NewGate("H", []int{0})

	assert.True(t, IsIndexError(c.RemoveInstruction(0)))
	assert.True(t, IsIndexError(c.ReplaceInstruction(0, g)))
	assert.True(t, IsIndexError(c.InsertInstruction(0, g)))
	assert.Equal(t, 0, c.NInstructions())
}

func TestRemoveReplaceInsert(t *testing.T) {
	c := NewComposite("c")
	h := NewGate("H", []int{0})
	x := NewGate("X", []int{0})
	z := NewGate("Z", []int{0})
	require.NoError(t, c.AddInstructions(h, x))

	require.NoError(t, c.InsertInstruction(1, z))
	assert.Equal(t, "H 0;\nZ 0;\nX 0;\n", c.String())

	require.NoError(t, c.RemoveInstruction(0))
	assert.Equal(t, "Z 0;\nX 0;\n", c.String())

	y := NewGate("Y", []int{0})
	require.NoError(t, c.ReplaceInstruction(1, y))
	assert.Equal(t, "Z 0;\nY 0;\n", c.String())
}

func TestReplaceAndInsertRerunDuplicateCheck(t *testing.T) {
	c := NewComposite("c")
	h := NewGate("H", []int{0})
	x := NewGate("X", []int{0})
	require.NoError(t, c.AddInstructions(h, x))

	assert.True(t, IsDuplicateError(c.ReplaceInstruction(1, h)))
	assert.True(t, IsDuplicateError(c.InsertInstruction(0, x)))
	assert.Equal(t, 2, c.NInstructions())
}

func TestReplaceVariableReplacesEveryOccurrence(t *testing.T) {
	c := NewComposite("c", "x", "y")
	c.AddVariable("x")

	c.ReplaceVariable("x", "z")

	assert.Equal(t, []string{"z", "y", "z"}, c.Variables())
}

func TestAddVariablesKeepsDuplicates(t *testing.T) {
	c := NewComposite("c")
	c.AddVariables("t0", "t1", "t0")
	assert.Equal(t, []string{"t0", "t1", "t0"}, c.Variables())
}

func TestStringIncludesDisabledChildren(t *testing.T) {
	c := NewComposite("c")
	h := NewGate("H", []int{0})
	rx := NewGate("Rx", []int{1}, Double(0.5))
	rx.Disable()
	require.NoError(t, c.AddInstructions(h, rx))

	assert.Equal(t, "H 0;\nRx 1 0.5;\n", c.String())

	var executed []string
	for inst := range Elementary(c) {
		executed = append(executed, inst.Name())
	}
	assert.Equal(t, []string{"H"}, executed, "traversal skips what String still prints")
}

func TestBitsSpanSubtree(t *testing.T) {
	inner := NewComposite("inner")
	require.NoError(t, inner.AddInstruction(NewGate("CNOT", []int{3, 1})))
	c := NewComposite("outer")
	require.NoError(t, c.AddInstructions(NewGate("H", []int{0}), inner, NewGate("X", []int{1})))

	assert.Equal(t, []int{0, 1, 3}, c.Bits())
	assert.Equal(t, 3, c.NBits())
}

func TestDepth(t *testing.T) {
	tests := []struct {
		name  string
		gates []*Gate
		want  int
	}{
		{"empty", nil, 0},
		{"parallel single-qubit", []*Gate{NewGate("H", []int{0}), NewGate("H", []int{1})}, 1},
		{"serial on one qubit", []*Gate{NewGate("H", []int{0}), NewGate("X", []int{0})}, 2},
		{"entangler joins layers", []*Gate{
			NewGate("H", []int{0}),
			NewGate("X", []int{0}),
			NewGate("H", []int{1}),
			NewGate("CNOT", []int{0, 1}),
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposite("c")
			for _, g := range tt.gates {
				require.NoError(t, c.AddInstruction(g))
			}
			assert.Equal(t, tt.want, c.Depth())
		})
	}
}

func TestMapBits(t *testing.T) {
	c := NewComposite("c")
	require.NoError(t, c.AddInstructions(NewGate("H", []int{0}), NewGate("CNOT", []int{0, 1})))

	require.NoError(t, c.MapBits([]int{5, 7}))
	assert.Equal(t, "H 5;\nCNOT 5 7;\n", c.String())

	err := c.MapBits([]int{0})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestMapBitsLeavesTreeUnchangedOnError(t *testing.T) {
	inner := NewComposite("inner")
	require.NoError(t, inner.AddInstruction(NewGate("X", []int{5})))
	c := NewComposite("c")
	require.NoError(t, c.AddInstructions(NewGate("H", []int{0}), inner))

	err := c.MapBits([]int{3})
	require.Error(t, err)
	assert.True(t, IsIndexError(err))
	assert.Equal(t, "H 0;\nX 5;\n", c.String())
}

func TestStringFlattensNestedComposites(t *testing.T) {
	inner := NewComposite("inner")
	require.NoError(t, inner.AddInstruction(NewGate("CNOT", []int{0, 1})))
	c := NewComposite("outer")
	require.NoError(t, c.AddInstructions(NewGate("H", []int{0}), inner, NewComposite("empty"), NewGate("X", []int{1})))

	assert.Equal(t, "H 0;\nCNOT 0 1;\nX 1;\n", c.String())
}

func TestBind(t *testing.T) {
	c := NewComposite("ansatz", "theta")
	require.NoError(t, c.AddInstructions(
		NewGate("Ry", []int{0}, Var("theta")),
		NewGate("CNOT", []int{0, 1}),
	))

	bound, err := c.Bind([]float64{0.25})
	require.NoError(t, err)

	assert.Equal(t, "Ry 0 0.25;\nCNOT 0 1;\n", bound.String())
	assert.Equal(t, "Ry 0 theta;\nCNOT 0 1;\n", c.String(), "receiver must not change")
}

func TestBindErrors(t *testing.T) {
	c := NewComposite("ansatz", "theta")
	require.NoError(t, c.AddInstruction(NewGate("Ry", []int{0}, Var("phi"))))

	_, err := c.Bind(nil)
	assert.True(t, errors.Is(err, ErrParameterCount))

	_, err = c.Bind([]float64{1})
	assert.True(t, errors.Is(err, ErrUnknownVariable))
}

func TestCloneIsDeep(t *testing.T) {
	inner := NewComposite("inner")
	rx := NewGate("Rx", []int{0}, Double(1))
	require.NoError(t, inner.AddInstruction(rx))
	c := NewComposite("outer")
	require.NoError(t, c.AddInstruction(inner))

	clone := c.CloneComposite()
	require.NoError(t, rx.SetParameter(0, Double(2)))
	rx.Disable()

	cloned := AsComposite(clone.Instructions()[0]).Instructions()[0]
	assert.NotSame(t, rx, cloned)
	assert.True(t, cloned.IsEnabled())
	assert.Equal(t, "Rx 0 1", cloned.String())
}

type countingExpander struct{ calls int }

func (e *countingExpander) Expand(c *Composite, opts Options) error {
	e.calls++
	n, err := opts.Int("n")
	if err != nil {
		return err
	}
	for i := range n {
		if err := c.AddInstruction(NewGate("H", []int{i})); err != nil {
			return err
		}
	}
	return nil
}

func TestExpand(t *testing.T) {
	t.Run("default is a no-op", func(t *testing.T) {
		c := NewComposite("plain")
		require.NoError(t, c.Expand(Options{"n": 3}))
		assert.Equal(t, 0, c.NInstructions())
	})

	t.Run("installed expander runs", func(t *testing.T) {
		e := &countingExpander{}
		c := NewComposite("gen")
		c.SetExpander(e)
		require.NoError(t, c.Expand(Options{"n": 3}))
		assert.Equal(t, 1, e.calls)
		assert.Equal(t, 3, c.NInstructions())
	})

	t.Run("bad option", func(t *testing.T) {
		c := NewComposite("gen")
		c.SetExpander(&countingExpander{})
		assert.Error(t, c.Expand(Options{"n": "three"}))
	})
}

func TestCompositeParameters(t *testing.T) {
	c := NewComposite("c", "a", "b")

	p, err := c.Parameter(1)
	require.NoError(t, err)
	assert.Equal(t, Var("b"), p)

	require.NoError(t, c.SetParameter(0, Var("alpha")))
	assert.Equal(t, []string{"alpha", "b"}, c.Variables())

	assert.Error(t, c.SetParameter(0, Double(1)))
	assert.True(t, IsIndexError(c.SetParameter(2, Var("x"))))
}

func TestRemoveDisabled(t *testing.T) {
	inner := NewComposite("inner")
	y := NewGate("Y", []int{1})
	y.Disable()
	require.NoError(t, inner.AddInstructions(NewGate("X", []int{0}), y))
	h := NewGate("H", []int{0})
	h.Disable()
	c := NewComposite("outer")
	require.NoError(t, c.AddInstructions(h, inner, NewGate("Z", []int{0})))

	c.RemoveDisabled()

	assert.Equal(t, 2, c.NInstructions())
	assert.Equal(t, 1, inner.NInstructions())
	assert.Equal(t, "X 0;\nZ 0;\n", c.String())
}
