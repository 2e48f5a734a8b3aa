// Package ir provides the quantum intermediate representation for xacc.
//
// Programs are trees of Instructions. Leaves are gates (*Gate) or annealing
// terms (*DWQMI); interior nodes are composites (*Composite) that own their
// children. The Iterator walks a tree in pre-order and is the only traversal
// the rest of the module relies on.
//
// All other internal packages import ir; ir imports nothing internal.
package ir
