// Package graph holds undirected weighted graphs used for annealing problems
// and hardware topologies.
//
// Vertices carry properties (a bias and free-form labels). Self-loops are
// never edges: a term on a single qubit is a vertex bias.
package graph

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/roach88/xacc/internal/ir"
)

var (
	ErrSelfLoop       = errors.New("self-loop is not an edge")
	ErrVertexExists   = errors.New("vertex already exists")
	ErrVertexNotFound = errors.New("vertex not found")
)

// Properties are the per-vertex attributes.
type Properties struct {
	Bias   float64
	Labels map[string]string
}

func (p Properties) clone() Properties {
	return Properties{Bias: p.Bias, Labels: maps.Clone(p.Labels)}
}

// Edge is an undirected weighted edge with U < V.
type Edge struct {
	U, V   int64
	Weight float64
}

// Graph is an undirected weighted graph backed by gonum.
type Graph struct {
	g     *simple.WeightedUndirectedGraph
	props map[int64]Properties
	next  int64
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewWeightedUndirectedGraph(0, 0),
		props: make(map[int64]Properties),
	}
}

// AddVertex adds a vertex with the next free id and returns the id.
func (g *Graph) AddVertex(props Properties) int64 {
	for g.g.Node(g.next) != nil {
		g.next++
	}
	id := g.next
	g.g.AddNode(simple.Node(id))
	g.props[id] = props.clone()
	g.next++
	return id
}

// AddVertexWithID adds a vertex with a caller-chosen id.
func (g *Graph) AddVertexWithID(id int64, props Properties) error {
	if g.g.Node(id) != nil {
		return fmt.Errorf("vertex %d: %w", id, ErrVertexExists)
	}
	g.g.AddNode(simple.Node(id))
	g.props[id] = props.clone()
	return nil
}

// HasVertex reports whether id is a vertex.
func (g *Graph) HasVertex(id int64) bool { return g.g.Node(id) != nil }

// AddEdge adds or reweights the edge {u, v}.
func (g *Graph) AddEdge(u, v int64, weight float64) error {
	if u == v {
		return fmt.Errorf("edge %d-%d: %w", u, v, ErrSelfLoop)
	}
	for _, id := range []int64{u, v} {
		if !g.HasVertex(id) {
			return fmt.Errorf("edge %d-%d: vertex %d: %w", u, v, id, ErrVertexNotFound)
		}
	}
	if !g.g.HasEdgeBetween(u, v) {
		g.edges++
	}
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(u), simple.Node(v), weight))
	return nil
}

// EdgeExists reports whether {u, v} is an edge.
func (g *Graph) EdgeExists(u, v int64) bool {
	return u != v && g.g.HasEdgeBetween(u, v)
}

// EdgeWeight returns the weight of {u, v}.
func (g *Graph) EdgeWeight(u, v int64) (float64, bool) {
	if !g.EdgeExists(u, v) {
		return 0, false
	}
	return g.g.Weight(u, v)
}

// Order is the number of vertices.
func (g *Graph) Order() int { return len(g.props) }

// Size is the number of edges.
func (g *Graph) Size() int { return g.edges }

// Vertices returns the vertex ids in ascending order.
func (g *Graph) Vertices() []int64 {
	return slices.Sorted(maps.Keys(g.props))
}

// Neighbors returns the ids adjacent to v in ascending order.
func (g *Graph) Neighbors(v int64) []int64 {
	if !g.HasVertex(v) {
		return nil
	}
	var ids []int64
	it := g.g.From(v)
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	slices.Sort(ids)
	return ids
}

// Degree is the number of neighbors of v.
func (g *Graph) Degree(v int64) int {
	if !g.HasVertex(v) {
		return 0
	}
	return g.g.From(v).Len()
}

// Edges returns every edge with U < V, sorted by (U, V).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	it := g.g.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		edges = append(edges, Edge{U: u, V: v, Weight: e.Weight()})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(a.U, b.U); c != 0 {
			return c
		}
		return cmp.Compare(a.V, b.V)
	})
	return edges
}

// Properties returns a copy of the properties of v.
func (g *Graph) Properties(v int64) (Properties, bool) {
	p, ok := g.props[v]
	if !ok {
		return Properties{}, false
	}
	return p.clone(), true
}

// Bias returns the bias of v, zero when v is absent.
func (g *Graph) Bias(v int64) float64 { return g.props[v].Bias }

// SetBias overwrites the bias of v.
func (g *Graph) SetBias(v int64, bias float64) error {
	p, ok := g.props[v]
	if !ok {
		return fmt.Errorf("vertex %d: %w", v, ErrVertexNotFound)
	}
	p.Bias = bias
	g.props[v] = p
	return nil
}

// SetLabel sets a free-form label on v.
func (g *Graph) SetLabel(v int64, key, value string) error {
	p, ok := g.props[v]
	if !ok {
		return fmt.Errorf("vertex %d: %w", v, ErrVertexNotFound)
	}
	if p.Labels == nil {
		p.Labels = make(map[string]string)
	}
	p.Labels[key] = value
	g.props[v] = p
	return nil
}

// Subgraph returns the subgraph induced by ids. Unknown ids are ignored.
func (g *Graph) Subgraph(ids []int64) *Graph {
	sub := New()
	keep := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if p, ok := g.props[id]; ok && !keep[id] {
			keep[id] = true
			_ = sub.AddVertexWithID(id, p)
		}
	}
	for _, e := range g.Edges() {
		if keep[e.U] && keep[e.V] {
			_ = sub.AddEdge(e.U, e.V, e.Weight)
		}
	}
	return sub
}

// Connected reports whether the graph has exactly one connected component.
// The empty graph is not connected.
func (g *Graph) Connected() bool {
	if g.Order() == 0 {
		return false
	}
	return len(topo.ConnectedComponents(g.g)) == 1
}

// Hash is the content address of the graph: its vertices, biases and
// weighted edges. Labels are not included.
func (g *Graph) Hash() (string, error) {
	vertices := make([]any, 0, g.Order())
	for _, id := range g.Vertices() {
		vertices = append(vertices, []any{id, g.props[id].Bias})
	}
	edges := make([]any, 0, g.Size())
	for _, e := range g.Edges() {
		edges = append(edges, []any{e.U, e.V, e.Weight})
	}
	return ir.ContentHash(ir.DomainGraph, map[string]any{
		"vertices": vertices,
		"edges":    edges,
	})
}
