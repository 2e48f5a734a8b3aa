package graph

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVertexAssignsFreshIDs(t *testing.T) {
	g := New()
	require.NoError(t, g.AddVertexWithID(0, Properties{}))

	id := g.AddVertex(Properties{Bias: 1.5})

	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1.5, g.Bias(id))
	assert.Equal(t, 2, g.Order())
}

func TestAddVertexWithIDRejectsDuplicate(t *testing.T) {
	g := New()
	require.NoError(t, g.AddVertexWithID(7, Properties{}))
	err := g.AddVertexWithID(7, Properties{})
	assert.True(t, errors.Is(err, ErrVertexExists))
}

func TestAddEdge(t *testing.T) {
	g := New()
	require.NoError(t, g.AddVertexWithID(0, Properties{}))
	require.NoError(t, g.AddVertexWithID(1, Properties{}))

	require.NoError(t, g.AddEdge(0, 1, 2.2))
	assert.True(t, g.EdgeExists(0, 1))
	assert.True(t, g.EdgeExists(1, 0), "edges are undirected")
	w, ok := g.EdgeWeight(1, 0)
	require.True(t, ok)
	assert.Equal(t, 2.2, w)

	require.NoError(t, g.AddEdge(1, 0, 4.0))
	assert.Equal(t, 1, g.Size(), "reweighting must not add an edge")
	w, _ = g.EdgeWeight(0, 1)
	assert.Equal(t, 4.0, w)
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	require.NoError(t, g.AddVertexWithID(0, Properties{}))

	assert.True(t, errors.Is(g.AddEdge(0, 0, 1), ErrSelfLoop))
	assert.True(t, errors.Is(g.AddEdge(0, 9, 1), ErrVertexNotFound))
	assert.False(t, g.EdgeExists(0, 0))
	_, ok := g.EdgeWeight(0, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, g.Size())
}

func TestNeighborsAndEdgesAreSorted(t *testing.T) {
	g, err := Complete(4)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 3}, g.Neighbors(2))
	assert.Equal(t, 3, g.Degree(2))
	assert.Nil(t, g.Neighbors(42))

	edges := g.Edges()
	require.Len(t, edges, 6)
	assert.Equal(t, Edge{U: 0, V: 1, Weight: 1}, edges[0])
	assert.Equal(t, Edge{U: 2, V: 3, Weight: 1}, edges[5])
	for _, e := range edges {
		assert.Less(t, e.U, e.V)
	}
}

func TestPropertiesAreCopies(t *testing.T) {
	g := New()
	require.NoError(t, g.AddVertexWithID(3, Properties{}))
	require.NoError(t, g.SetLabel(3, "role", "visible"))
	require.NoError(t, g.SetBias(3, -0.5))

	p, ok := g.Properties(3)
	require.True(t, ok)
	p.Labels["role"] = "hidden"

	again, _ := g.Properties(3)
	assert.Equal(t, "visible", again.Labels["role"])
	assert.Equal(t, -0.5, again.Bias)

	assert.True(t, errors.Is(g.SetBias(9, 1), ErrVertexNotFound))
}

func TestSubgraphAndConnected(t *testing.T) {
	g, err := Grid(2, 3)
	require.NoError(t, err)
	assert.True(t, g.Connected())

	sub := g.Subgraph([]int64{0, 2})
	assert.Equal(t, 2, sub.Order())
	assert.Equal(t, 0, sub.Size())
	assert.False(t, sub.Connected())

	path := g.Subgraph([]int64{0, 1, 2})
	assert.True(t, path.Connected())
	assert.False(t, New().Connected())
}

func TestHashIgnoresConstructionOrder(t *testing.T) {
	a := New()
	b := New()
	for _, id := range []int64{0, 1, 2} {
		require.NoError(t, a.AddVertexWithID(id, Properties{}))
	}
	for _, id := range []int64{2, 0, 1} {
		require.NoError(t, b.AddVertexWithID(id, Properties{}))
	}
	require.NoError(t, a.AddEdge(0, 1, 1))
	require.NoError(t, a.AddEdge(1, 2, 2))
	require.NoError(t, b.AddEdge(2, 1, 2))
	require.NoError(t, b.AddEdge(1, 0, 1))

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	require.NoError(t, b.SetBias(0, 1))
	hb2, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb2)
}

func TestChimera(t *testing.T) {
	tests := []struct {
		m, n, l int
		order   int
		size    int
	}{
		{1, 1, 4, 8, 16},
		{2, 2, 4, 32, 2*2*16 + 4*1*2 + 4*2*1},
		{16, 16, 4, 2048, 16*16*16 + 4*15*16 + 4*16*15},
	}

	for _, tt := range tests {
		g, err := Chimera(tt.m, tt.n, tt.l)
		require.NoError(t, err)
		assert.Equal(t, tt.order, g.Order(), "C(%d,%d,%d) order", tt.m, tt.n, tt.l)
		assert.Equal(t, tt.size, g.Size(), "C(%d,%d,%d) size", tt.m, tt.n, tt.l)
	}

	_, err := Chimera(0, 1, 4)
	assert.Error(t, err)
}

func TestChimeraCellStructure(t *testing.T) {
	g, err := Chimera(2, 1, 2)
	require.NoError(t, err)

	// cell (0,0): side 0 = {0,1}, side 1 = {2,3}; cell (1,0): side 0 = {4,5}
	assert.True(t, g.EdgeExists(0, 2))
	assert.True(t, g.EdgeExists(1, 3))
	assert.False(t, g.EdgeExists(0, 1), "no coupling within a side")
	assert.True(t, g.EdgeExists(0, 4), "vertical coupling between cells")
	assert.False(t, g.EdgeExists(2, 6), "no horizontal neighbour in a single column")
}

func TestParseTopology(t *testing.T) {
	g, err := ParseTopology("grid:3,3")
	require.NoError(t, err)
	assert.Equal(t, 9, g.Order())
	assert.Equal(t, 12, g.Size())

	g, err = ParseTopology("complete:5")
	require.NoError(t, err)
	assert.Equal(t, 10, g.Size())

	for _, bad := range []string{"grid", "grid:3", "ring:4", "complete:x"} {
		_, err := ParseTopology(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("explicit edges", func(t *testing.T) {
		g, f, err := LoadFile(filepath.Join("testdata", "ring.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "ring4", f.Name)
		assert.Equal(t, 4, g.Order())
		assert.Equal(t, 4, g.Size())
		assert.True(t, g.EdgeExists(3, 0))
	})

	t.Run("generated with broken qubits", func(t *testing.T) {
		g, _, err := LoadFile(filepath.Join("testdata", "chimera_broken.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 7, g.Order())
		assert.Equal(t, 12, g.Size())
		assert.False(t, g.HasVertex(0))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, err := LoadFile(filepath.Join("testdata", "unknown_field.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})
}
