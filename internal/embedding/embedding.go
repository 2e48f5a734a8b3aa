// Package embedding maps logical problem graphs onto hardware graphs.
//
// An Embedding assigns each logical vertex a chain of hardware vertices.
// A valid embedding has non-empty, connected, pairwise-disjoint chains and
// realises every logical edge as at least one hardware edge between the
// two chains.
package embedding

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/xacc/internal/graph"
)

var (
	// ErrEmbeddingNotFound is returned when a search budget is exhausted.
	ErrEmbeddingNotFound = errors.New("no embedding found")

	// ErrInvalidEmbedding is wrapped by every Validate failure.
	ErrInvalidEmbedding = errors.New("invalid embedding")
)

// Embedding maps a logical vertex id to its chain of hardware vertex ids.
type Embedding map[int64][]int64

// InvalidError describes why an embedding failed validation.
type InvalidError struct {
	Vertex int64
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid embedding: logical vertex %d: %s", e.Vertex, e.Reason)
}

func (e *InvalidError) Unwrap() error { return ErrInvalidEmbedding }

// NotFoundError reports an exhausted search.
type NotFoundError struct {
	Algorithm string
	Tries     int
	Order     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no embedding for %d logical vertices after %d tries", e.Algorithm, e.Order, e.Tries)
}

func (e *NotFoundError) Unwrap() error { return ErrEmbeddingNotFound }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// Logical returns the logical vertex ids in ascending order.
func (e Embedding) Logical() []int64 {
	return slices.Sorted(maps.Keys(e))
}

// Qubits returns the total number of hardware vertices used.
func (e Embedding) Qubits() int {
	n := 0
	for _, chain := range e {
		n += len(chain)
	}
	return n
}

// MaxChainLength returns the length of the longest chain.
func (e Embedding) MaxChainLength() int {
	n := 0
	for _, chain := range e {
		n = max(n, len(chain))
	}
	return n
}

// Disjoint reports whether no hardware vertex appears in two chains, or
// twice in one chain.
func (e Embedding) Disjoint() bool {
	seen := make(map[int64]bool)
	for _, chain := range e {
		for _, q := range chain {
			if seen[q] {
				return false
			}
			seen[q] = true
		}
	}
	return true
}

// Clone returns a deep copy.
func (e Embedding) Clone() Embedding {
	out := make(Embedding, len(e))
	for v, chain := range e {
		out[v] = slices.Clone(chain)
	}
	return out
}

// Validate checks e against the problem and hardware graphs.
func (e Embedding) Validate(problem, hardware *graph.Graph) error {
	owner := make(map[int64]int64)
	for _, v := range problem.Vertices() {
		chain, ok := e[v]
		if !ok || len(chain) == 0 {
			return &InvalidError{Vertex: v, Reason: "empty chain"}
		}
		for _, q := range chain {
			if !hardware.HasVertex(q) {
				return &InvalidError{Vertex: v, Reason: fmt.Sprintf("hardware vertex %d does not exist", q)}
			}
			if prev, taken := owner[q]; taken {
				return &InvalidError{Vertex: v, Reason: fmt.Sprintf("hardware vertex %d already used by %d", q, prev)}
			}
			owner[q] = v
		}
		if len(chain) > 1 && !hardware.Subgraph(chain).Connected() {
			return &InvalidError{Vertex: v, Reason: "chain is not connected"}
		}
	}
	for v := range e {
		if !problem.HasVertex(v) {
			return &InvalidError{Vertex: v, Reason: "not a problem vertex"}
		}
	}
	for _, edge := range problem.Edges() {
		if !chainsTouch(hardware, e[edge.U], e[edge.V]) {
			return &InvalidError{Vertex: edge.U, Reason: fmt.Sprintf("edge to %d is not realised in hardware", edge.V)}
		}
	}
	return nil
}

func chainsTouch(hardware *graph.Graph, a, b []int64) bool {
	_, _, ok := couplerBetween(hardware, a, b)
	return ok
}

// couplerBetween returns the first hardware edge between chains a and b,
// scanning both in ascending order.
func couplerBetween(hardware *graph.Graph, a, b []int64) (int64, int64, bool) {
	sa, sb := slices.Sorted(slices.Values(a)), slices.Sorted(slices.Values(b))
	for _, x := range sa {
		for _, y := range sb {
			if hardware.EdgeExists(x, y) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
