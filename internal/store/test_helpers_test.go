package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/xacc/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestComposite builds a small parameterized circuit.
func createTestComposite(t *testing.T, name string) *ir.Composite {
	t.Helper()
	c := ir.NewComposite(name, "theta")
	c.SetTag("circuit")
	if err := c.AddInstructions(
		ir.NewGate("H", []int{0}),
		ir.NewGate("Ry", []int{1}, ir.Var("theta")),
		ir.NewGate("CNOT", []int{0, 1}),
	); err != nil {
		t.Fatalf("AddInstructions() failed: %v", err)
	}
	return c
}
