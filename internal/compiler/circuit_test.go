package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/testutil"
)

func compileCircuit(t *testing.T, src, path string) (*ir.Composite, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileCircuit(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileCircuitBasic(t *testing.T) {
	c, err := compileCircuit(t, `
		circuit: ansatz: {
			variables: ["theta"]
			instructions: [
				{gate: "X", bits: [0]},
				{gate: "Ry", bits: [1], params: ["theta"]},
				{gate: "CNOT", bits: [1, 0]},
				{gate: "Rx", bits: [0], params: [0.5]},
				{gate: "Rz", bits: [1], params: [1]},
			]
		}
	`, "circuit.ansatz")
	require.NoError(t, err)

	assert.Equal(t, "ansatz", c.Name())
	assert.Equal(t, TagCircuit, c.Tag())
	assert.Equal(t, []string{"theta"}, c.Variables())
	assert.Equal(t, []string{"X 0", "Ry 1 theta", "CNOT 1 0", "Rx 0 0.5", "Rz 1 1"}, testutil.Names(c))

	ry, err := c.Instruction(1)
	require.NoError(t, err)
	assert.Equal(t, []ir.Parameter{ir.Var("theta")}, ry.Parameters())

	rz, err := c.Instruction(4)
	require.NoError(t, err)
	assert.Equal(t, []ir.Parameter{ir.Double(1)}, rz.Parameters(), "integer literals become doubles")
}

func TestCompileCircuitUndeclaredStringIsLiteral(t *testing.T) {
	c, err := compileCircuit(t, `
		circuit: c: instructions: [{gate: "Rx", bits: [0], params: ["pi"]}]
	`, "circuit.c")
	require.NoError(t, err)

	rx, err := c.Instruction(0)
	require.NoError(t, err)
	assert.Equal(t, []ir.Parameter{ir.Str("pi")}, rx.Parameters())
}

func TestCompileCircuitNestedAndDisabled(t *testing.T) {
	c, err := compileCircuit(t, `
		circuit: c: instructions: [
			{composite: "prep", instructions: [
				{gate: "H", bits: [0]},
				{gate: "H", bits: [1]},
			]},
			{gate: "Z", bits: [0], enabled: false},
			{gate: "CNOT", bits: [0, 1]},
		]
	`, "circuit.c")
	require.NoError(t, err)

	require.Equal(t, 3, c.NInstructions())
	prep, err := c.Instruction(0)
	require.NoError(t, err)
	assert.True(t, prep.IsComposite())
	assert.Equal(t, "prep", prep.Name())

	z, err := c.Instruction(1)
	require.NoError(t, err)
	assert.False(t, z.IsEnabled())

	assert.Equal(t, []string{"H 0", "H 1", "CNOT 0 1"}, testutil.Names(c))
}

func TestCompileCircuitCallPlaceholder(t *testing.T) {
	c, err := compileCircuit(t, `
		circuit: c: instructions: [{call: "prep"}]
	`, "circuit.c")
	require.NoError(t, err)

	call, err := c.Instruction(0)
	require.NoError(t, err)
	sub := ir.AsComposite(call)
	require.NotNil(t, sub)
	assert.Equal(t, "prep", sub.Name())
	assert.Equal(t, TagCall, sub.Tag())
}

func TestCompileCircuitErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing instructions",
			src:  `circuit: c: variables: []`,
			want: "instructions are required",
		},
		{
			name: "unknown gate",
			src:  `circuit: c: instructions: [{gate: "Toffoli3", bits: [0]}]`,
			want: "Toffoli3",
		},
		{
			name: "wrong arity",
			src:  `circuit: c: instructions: [{gate: "CNOT", bits: [0]}]`,
			want: "CNOT",
		},
		{
			name: "missing bits",
			src:  `circuit: c: instructions: [{gate: "H"}]`,
			want: "bits are required",
		},
		{
			name: "negative qubit",
			src:  `circuit: c: instructions: [{gate: "H", bits: [-1]}]`,
			want: "non-negative",
		},
		{
			name: "no kind",
			src:  `circuit: c: instructions: [{bits: [0]}]`,
			want: "one of gate, composite or call",
		},
		{
			name: "composite without body",
			src:  `circuit: c: instructions: [{composite: "x"}]`,
			want: "needs instructions",
		},
		{
			name: "bool parameter",
			src:  `circuit: c: instructions: [{gate: "Rx", bits: [0], params: [true]}]`,
			want: "unsupported parameter kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileCircuit(t, tt.src, "circuit.c")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var cerr *CompileError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestLabelUnquotesNames(t *testing.T) {
	c, err := compileCircuit(t, `
		circuit: "h-bases": instructions: [{gate: "H", bits: [0]}]
	`, `circuit."h-bases"`)
	require.NoError(t, err)
	assert.Equal(t, "h-bases", c.Name())
}
