// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/xacc/internal/ir"
)

// Seed is the embedding seed used by deterministic tests.
const Seed uint64 = 20240917

var provider = ir.NewProvider()

// Circuit builds a flat circuit from one instruction per line, written as
// "<gate> <bits...> <params...>", e.g. "Rx 1 0.5" or "CNOT 0 1". The
// provider's gate table decides how many fields are bits. Numeric
// parameters become Double; anything else is a variable and is declared
// on the circuit.
func Circuit(t testing.TB, name string, lines ...string) *ir.Composite {
	t.Helper()
	c := ir.NewComposite(name)
	for _, line := range lines {
		require.NoError(t, c.AddInstruction(Gate(t, c, line)), line)
	}
	return c
}

// Gate parses a single instruction line. Variables are declared on c
// when c is non-nil.
func Gate(t testing.TB, c *ir.Composite, line string) ir.Instruction {
	t.Helper()
	fields := strings.Fields(line)
	require.NotEmpty(t, fields, "empty instruction line")

	n, err := provider.NRequiredBits(fields[0])
	require.NoError(t, err, line)
	require.GreaterOrEqual(t, len(fields)-1, n, "%q: missing qubits", line)

	bits := make([]int, n)
	for i := range n {
		bits[i], err = strconv.Atoi(fields[1+i])
		require.NoError(t, err, line)
	}
	var params []ir.Parameter
	for _, f := range fields[1+n:] {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			params = append(params, ir.Double(v))
			continue
		}
		if c != nil && !containsVar(c, f) {
			c.AddVariable(f)
		}
		params = append(params, ir.Var(f))
	}

	inst, err := provider.CreateInstruction(fields[0], bits, params...)
	require.NoError(t, err, line)
	return inst
}

func containsVar(c *ir.Composite, name string) bool {
	for _, v := range c.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// MeasurementBases builds one circuit per basis, each the shared prefix
// followed by that basis suffix. Circuit i is named names[i].
func MeasurementBases(t testing.TB, prefix []string, names []string, suffixes [][]string) []*ir.Composite {
	t.Helper()
	require.Len(t, suffixes, len(names))
	out := make([]*ir.Composite, len(names))
	for i, name := range names {
		lines := append(append([]string{}, prefix...), suffixes[i]...)
		out[i] = Circuit(t, name, lines...)
	}
	return out
}

// Names returns the elementary instruction strings of c in pre-order.
func Names(c *ir.Composite) []string {
	var out []string
	for inst := range ir.Elementary(c) {
		out = append(out, inst.String())
	}
	return out
}
