package embedding

import (
	"fmt"

	"github.com/roach88/xacc/internal/anneal"
	"github.com/roach88/xacc/internal/graph"
)

// Apply rewrites a logical problem onto hardware qubits. Each logical
// bias is split evenly across its chain, every hardware edge inside a
// chain gets a ferromagnetic coupler of -chainStrength, and each logical
// coupler is placed on the first hardware edge between the two chains.
func Apply(problem, hardware *graph.Graph, emb Embedding, chainStrength float64) (*anneal.Program, error) {
	if err := emb.Validate(problem, hardware); err != nil {
		return nil, err
	}
	p := anneal.NewProgram("embedded")

	for _, v := range problem.Vertices() {
		chain := emb[v]
		share := problem.Bias(v) / float64(len(chain))
		for _, q := range chain {
			if err := p.AddBias(int(q), share); err != nil {
				return nil, err
			}
		}
		for i, a := range chain {
			for _, b := range chain[i+1:] {
				if !hardware.EdgeExists(a, b) {
					continue
				}
				if err := p.AddTerm(int(a), int(b), -chainStrength); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, e := range problem.Edges() {
		a, b, ok := couplerBetween(hardware, emb[e.U], emb[e.V])
		if !ok {
			return nil, fmt.Errorf("apply: edge %d-%d: %w", e.U, e.V, ErrInvalidEmbedding)
		}
		if err := p.AddTerm(int(a), int(b), e.Weight); err != nil {
			return nil, err
		}
	}
	return p, nil
}
