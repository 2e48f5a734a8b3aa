package embedding

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/xacc/internal/graph"
)

// Params tune an embedding search.
type Params struct {
	// Tries is the number of randomised restarts. Zero means DefaultTries.
	Tries int
	// Seed makes a search reproducible.
	Seed uint64
}

// DefaultTries is the restart budget when Params.Tries is zero.
const DefaultTries = 16

func (p Params) withDefaults() Params {
	if p.Tries <= 0 {
		p.Tries = DefaultTries
	}
	return p
}

// Algorithm finds minor embeddings.
type Algorithm interface {
	Name() string
	Embed(ctx context.Context, problem, hardware *graph.Graph, params Params) (Embedding, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Algorithm{}
)

func init() {
	Register(Heuristic{})
	Register(Identity{})
}

// Register makes an algorithm available to Lookup under its name.
func Register(a Algorithm) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Name()] = a
}

// Lookup returns the algorithm registered under name.
func Lookup(name string) (Algorithm, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding algorithm %q (have %v)", name, slices.Sorted(maps.Keys(registry)))
	}
	return a, nil
}

// Identity embeds each logical vertex onto the hardware vertex with the
// same id. It succeeds only when the problem is already native.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Embed(ctx context.Context, problem, hardware *graph.Graph, _ Params) (Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make(Embedding, problem.Order())
	for _, v := range problem.Vertices() {
		emb[v] = []int64{v}
	}
	if err := emb.Validate(problem, hardware); err != nil {
		return nil, fmt.Errorf("%w: %w", &NotFoundError{Algorithm: "identity", Tries: 1, Order: problem.Order()}, err)
	}
	return emb, nil
}
