// Package ansatz splits a set of circuits that share a state-preparation
// prefix into one base circuit and a per-circuit observed remainder.
//
// The typical input is K measurement bases of one variational ansatz: the
// base can then be executed once and only the short basis-change and
// measurement suffixes run per circuit.
package ansatz

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/xacc/internal/ir"
)

// BaseName is the name given to the shared prefix circuit.
const BaseName = "base_ansatz"

// ErrDecompositionMismatch is returned by Check when base ++ sub does not
// reproduce an input circuit.
var ErrDecompositionMismatch = errors.New("observed decomposition does not reproduce input")

// Observed is the result of a decomposition. Subs[i] corresponds to the
// i-th input circuit and carries its name.
type Observed struct {
	Base *ir.Composite
	Subs []*ir.Composite
}

// Shared reports whether a non-empty prefix was factored out.
func (o *Observed) Shared() bool { return o.Base.NInstructions() > 0 }

// FromObservedComposites factors the longest common prefix of enabled
// elementary instructions out of cs. Only instructions before a circuit's
// first Measure can be shared. When nothing is shared the base is empty
// and each sub-circuit is a copy of its input. The inputs are never
// modified.
//
// Every element of cs must be non-nil; a nil circuit panics before any
// work is done, naming its position.
func FromObservedComposites(cs []*ir.Composite) *Observed {
	for i, c := range cs {
		if c == nil {
			panic(fmt.Sprintf("ansatz: circuit %d is nil", i))
		}
	}
	switch len(cs) {
	case 0:
		return &Observed{Base: ir.NewComposite(BaseName)}
	case 1:
		return noSharing(cs)
	}

	shortest := cs[0]
	shortestLen := baseLength(shortest)
	for _, c := range cs[1:] {
		if n := baseLength(c); n < shortestLen {
			shortest, shortestLen = c, n
		}
	}

	base := ir.NewComposite(BaseName)
	for inst := range ir.Elementary(shortest) {
		if inst.Name() == ir.MeasureName {
			break
		}
		// A fresh clone cannot be a duplicate.
		_ = base.AddInstruction(inst.Clone())
	}

	for baseLength(base) > 0 {
		if rests, ok := matchAll(base, cs); ok {
			subs := make([]*ir.Composite, len(cs))
			for i, c := range cs {
				subs[i] = remainder(c, rests[i])
			}
			return &Observed{Base: base, Subs: subs}
		}
		if !removeLast(base) {
			break
		}
	}
	return noSharing(cs)
}

// baseLength counts the enabled elementary instructions before the first
// Measure, or all of them when there is none.
func baseLength(c *ir.Composite) int {
	n := 0
	for inst := range ir.Elementary(c) {
		if inst.Name() == ir.MeasureName {
			break
		}
		n++
	}
	return n
}

// matchAll walks base against every circuit in lock-step and returns, for
// each, an iterator positioned just after the matched prefix.
func matchAll(base *ir.Composite, cs []*ir.Composite) ([]*ir.Iterator, bool) {
	rests := make([]*ir.Iterator, len(cs))
	for i, c := range cs {
		it := ir.NewIterator(c)
		if !consume(ir.NewIterator(base), it) {
			return nil, false
		}
		rests[i] = it
	}
	return rests, true
}

// consume advances want over every elementary instruction of got,
// requiring each pair to be equal.
func consume(got, want *ir.Iterator) bool {
	for {
		g, ok := got.NextElementary()
		if !ok {
			return true
		}
		w, ok := want.NextElementary()
		if !ok || !compareInst(g, w) {
			return false
		}
	}
}

// compareInst compares two elementary instructions by name, bits and
// parameters.
func compareInst(a, b ir.Instruction) bool {
	return a.Name() == b.Name() &&
		slices.Equal(a.Bits(), b.Bits()) &&
		ir.ParamsEqual(a.Parameters(), b.Parameters())
}

// remainder clones the rest of it into a circuit named after c.
func remainder(c *ir.Composite, it *ir.Iterator) *ir.Composite {
	sub := ir.NewComposite(c.Name(), c.Variables()...)
	sub.SetTag(c.Tag())
	for {
		inst, ok := it.NextElementary()
		if !ok {
			return sub
		}
		_ = sub.AddInstruction(inst.Clone())
	}
}

// removeLast disables and removes the last enabled elementary instruction
// in pre-order, descending into nested composites.
func removeLast(c *ir.Composite) bool {
	children := c.Instructions()
	for i := len(children) - 1; i >= 0; i-- {
		inst := children[i]
		if sub := ir.AsComposite(inst); sub != nil {
			if removeLast(sub) {
				return true
			}
			continue
		}
		if !inst.IsEnabled() {
			continue
		}
		inst.Disable()
		_ = c.RemoveInstruction(i)
		return true
	}
	return false
}

func noSharing(cs []*ir.Composite) *Observed {
	subs := make([]*ir.Composite, len(cs))
	for i, c := range cs {
		subs[i] = c.CloneComposite()
	}
	return &Observed{Base: ir.NewComposite(BaseName), Subs: subs}
}

// Validate reports whether Base followed by Subs[i] reproduces the
// enabled elementary instruction sequence of inputs[i] for every i, with
// nothing left over on either side.
func (o *Observed) Validate(inputs []*ir.Composite) bool {
	return o.mismatch(inputs) == nil
}

// Check is Validate returning ErrDecompositionMismatch with the failing
// circuit named.
func (o *Observed) Check(inputs []*ir.Composite) error {
	return o.mismatch(inputs)
}

func (o *Observed) mismatch(inputs []*ir.Composite) error {
	if len(o.Subs) != len(inputs) {
		return fmt.Errorf("%w: %d sub-circuits for %d inputs", ErrDecompositionMismatch, len(o.Subs), len(inputs))
	}
	for i, in := range inputs {
		want := ir.NewIterator(in)
		if !consume(ir.NewIterator(o.Base), want) || !consume(ir.NewIterator(o.Subs[i]), want) {
			return fmt.Errorf("%w: circuit %q diverges", ErrDecompositionMismatch, in.Name())
		}
		if _, extra := want.NextElementary(); extra {
			return fmt.Errorf("%w: circuit %q has unconsumed instructions", ErrDecompositionMismatch, in.Name())
		}
	}
	return nil
}
