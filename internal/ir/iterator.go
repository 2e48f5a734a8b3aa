package ir

import "iter"

// Iterator walks a composite tree in pre-order. Every node below the root
// is yielded, composites included, each exactly once. The root itself is
// not yielded.
//
// The tree must not be mutated while an Iterator is in use. To restart,
// construct a new Iterator over the same root.
type Iterator struct {
	stack []frame
}

type frame struct {
	c   *Composite
	idx int
}

// NewIterator returns an iterator positioned before the first child of root.
func NewIterator(root *Composite) *Iterator {
	if root == nil {
		return &Iterator{}
	}
	return &Iterator{stack: []frame{{c: root}}}
}

// HasNext reports whether Next will return another instruction.
func (it *Iterator) HasNext() bool {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.idx < len(top.c.children) {
			return true
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	return false
}

// Next returns the next instruction in pre-order, or nil when exhausted.
// When a composite is returned, its children follow before its next sibling.
func (it *Iterator) Next() Instruction {
	if !it.HasNext() {
		return nil
	}
	top := &it.stack[len(it.stack)-1]
	inst := top.c.children[top.idx]
	top.idx++
	if sub := AsComposite(inst); sub != nil {
		it.stack = append(it.stack, frame{c: sub})
	}
	return inst
}

// NextElementary advances to the next enabled, non-composite instruction.
func (it *Iterator) NextElementary() (Instruction, bool) {
	for it.HasNext() {
		inst := it.Next()
		if !inst.IsComposite() && inst.IsEnabled() {
			return inst, true
		}
	}
	return nil, false
}

// All yields every node below root in pre-order.
func All(root *Composite) iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		it := NewIterator(root)
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Elementary yields the enabled, non-composite instructions below root in
// pre-order.
func Elementary(root *Composite) iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		it := NewIterator(root)
		for {
			inst, ok := it.NextElementary()
			if !ok || !yield(inst) {
				return
			}
		}
	}
}

// Walk calls fn for each node below root in pre-order, stopping at the
// first error.
func Walk(root *Composite, fn func(Instruction) error) error {
	for inst := range All(root) {
		if err := fn(inst); err != nil {
			return err
		}
	}
	return nil
}
