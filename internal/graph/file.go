package graph

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk description of a hardware graph. Either Topology
// names a generated layout, or Vertices and Edges list it explicitly.
// Broken lists qubits removed from a generated layout.
type File struct {
	Name     string    `yaml:"name"`
	Topology string    `yaml:"topology,omitempty"`
	Dims     []int     `yaml:"dims,omitempty"`
	Vertices []int64   `yaml:"vertices,omitempty"`
	Edges    [][]int64 `yaml:"edges,omitempty"`
	Broken   []int64   `yaml:"broken,omitempty"`
}

// LoadFile reads a hardware graph description from path.
func LoadFile(path string) (*Graph, *File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open hardware file: %w", err)
	}
	defer fh.Close()

	var f File
	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("parse hardware file %s: %w", path, err)
	}
	g, err := f.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, &f, nil
}

// Build materialises the described graph.
func (f *File) Build() (*Graph, error) {
	var g *Graph
	switch {
	case f.Topology != "" && len(f.Vertices) > 0:
		return nil, errors.New("hardware file: topology and vertices are mutually exclusive")
	case f.Topology != "":
		var err error
		g, err = buildTopology(f.Topology, f.Dims)
		if err != nil {
			return nil, err
		}
	default:
		g = New()
		for _, v := range f.Vertices {
			if err := g.AddVertexWithID(v, Properties{}); err != nil {
				return nil, err
			}
		}
	}

	if len(f.Topology) == 0 {
		for i, e := range f.Edges {
			if len(e) != 2 {
				return nil, fmt.Errorf("hardware file: edge %d: expected [u, v], got %d ids", i, len(e))
			}
			if err := g.AddEdge(e[0], e[1], 1); err != nil {
				return nil, fmt.Errorf("hardware file: edge %d: %w", i, err)
			}
		}
	}

	if len(f.Broken) == 0 {
		return g, nil
	}
	broken := make(map[int64]bool, len(f.Broken))
	for _, b := range f.Broken {
		broken[b] = true
	}
	var keep []int64
	for _, v := range g.Vertices() {
		if !broken[v] {
			keep = append(keep, v)
		}
	}
	return g.Subgraph(keep), nil
}
