package anneal

import (
	"fmt"

	"github.com/roach88/xacc/internal/ir"
)

// RBM generates a restricted Boltzmann machine: nv visible and nh hidden
// bias terms plus a coupler between every visible/hidden pair. Hidden
// qubits are numbered after the visible ones. Every weight is a variable:
// v<i>, h<j> and w<i>_<j>.
type RBM struct{}

var _ ir.Expander = RBM{}

// NewRBM returns an empty program that expands as an RBM.
func NewRBM(name string) *Program {
	p := NewProgram(name)
	p.SetExpander(RBM{})
	return p
}

// Expand appends the RBM terms for options {"nv": N, "nh": M}.
func (RBM) Expand(c *ir.Composite, opts ir.Options) error {
	nv, err := opts.Int("nv")
	if err != nil {
		return fmt.Errorf("rbm %s: %w", c.Name(), err)
	}
	nh, err := opts.Int("nh")
	if err != nil {
		return fmt.Errorf("rbm %s: %w", c.Name(), err)
	}
	if nv <= 0 || nh <= 0 {
		return fmt.Errorf("rbm %s: nv and nh must be positive, got %d and %d", c.Name(), nv, nh)
	}

	add := func(q1, q2 int, name string) error {
		c.AddVariable(name)
		return c.AddInstruction(ir.NewDWQMIParam(q1, q2, ir.Var(name)))
	}
	for i := range nv {
		if err := add(i, i, fmt.Sprintf("v%d", i)); err != nil {
			return err
		}
	}
	for j := range nh {
		if err := add(nv+j, nv+j, fmt.Sprintf("h%d", j)); err != nil {
			return err
		}
	}
	for i := range nv {
		for j := range nh {
			if err := add(i, nv+j, fmt.Sprintf("w%d_%d", i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}
