package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Chimera builds the D-Wave Chimera topology C(m, n, l): an m x n grid of
// unit cells, each a complete bipartite K(l,l). Qubit ids follow the
// linear index ((row*n + col)*2 + side)*l + k. Side 0 qubits couple to the
// cell below, side 1 qubits to the cell to the right.
func Chimera(m, n, l int) (*Graph, error) {
	if m <= 0 || n <= 0 || l <= 0 {
		return nil, fmt.Errorf("chimera(%d,%d,%d): dimensions must be positive", m, n, l)
	}
	g := New()
	id := func(row, col, side, k int) int64 {
		return int64(((row*n+col)*2+side)*l + k)
	}
	for row := range m {
		for col := range n {
			for side := range 2 {
				for k := range l {
					_ = g.AddVertexWithID(id(row, col, side, k), Properties{})
				}
			}
		}
	}
	for row := range m {
		for col := range n {
			for a := range l {
				for b := range l {
					_ = g.AddEdge(id(row, col, 0, a), id(row, col, 1, b), 1)
				}
			}
			for k := range l {
				if row+1 < m {
					_ = g.AddEdge(id(row, col, 0, k), id(row+1, col, 0, k), 1)
				}
				if col+1 < n {
					_ = g.AddEdge(id(row, col, 1, k), id(row, col+1, 1, k), 1)
				}
			}
		}
	}
	return g, nil
}

// Complete builds K(n).
func Complete(n int) (*Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("complete(%d): size must be positive", n)
	}
	g := New()
	for i := range n {
		_ = g.AddVertexWithID(int64(i), Properties{})
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			_ = g.AddEdge(int64(i), int64(j), 1)
		}
	}
	return g, nil
}

// Grid builds a rows x cols lattice with 4-neighbor coupling. Vertex
// (r, c) has id r*cols + c.
func Grid(rows, cols int) (*Graph, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid(%d,%d): dimensions must be positive", rows, cols)
	}
	g := New()
	for i := range rows * cols {
		_ = g.AddVertexWithID(int64(i), Properties{})
	}
	for r := range rows {
		for c := range cols {
			v := int64(r*cols + c)
			if c+1 < cols {
				_ = g.AddEdge(v, v+1, 1)
			}
			if r+1 < rows {
				_ = g.AddEdge(v, v+int64(cols), 1)
			}
		}
	}
	return g, nil
}

// ParseTopology builds a graph from "kind:a,b,..." notation:
//
//	chimera:2,2,4
//	complete:5
//	grid:3,3
func ParseTopology(spec string) (*Graph, error) {
	kind, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("topology %q: expected kind:dims", spec)
	}
	var dims []int
	for _, field := range strings.Split(rest, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("topology %q: %w", spec, err)
		}
		dims = append(dims, n)
	}
	return buildTopology(kind, dims)
}

func buildTopology(kind string, dims []int) (*Graph, error) {
	want := map[string]int{"chimera": 3, "complete": 1, "grid": 2}
	n, ok := want[kind]
	if !ok {
		return nil, fmt.Errorf("unknown topology %q", kind)
	}
	if len(dims) != n {
		return nil, fmt.Errorf("topology %s: expected %d dimension(s), got %d", kind, n, len(dims))
	}
	switch kind {
	case "chimera":
		return Chimera(dims[0], dims[1], dims[2])
	case "complete":
		return Complete(dims[0])
	default:
		return Grid(dims[0], dims[1])
	}
}
