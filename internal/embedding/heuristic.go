package embedding

import (
	"container/heap"
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/roach88/xacc/internal/graph"
)

// Heuristic is a randomised minor-embedding search in the style of
// MinorMiner. Chains may share hardware vertices while the search runs:
// every vertex costs the hardware order raised to the number of chains
// already using it, so overlap is taken only when no free route exists.
// An initial pass places logical vertices in a shuffled breadth-first
// order. Then improvement rounds rip up each chain in turn and re-route it
// against its neighbours until no hardware vertex is shared. A try that is still
// overlapping after maxRounds restarts with a fresh order, up to
// Params.Tries tries.
type Heuristic struct{}

// maxRounds bounds the rip-up and re-route rounds of one try.
const maxRounds = 64

func (Heuristic) Name() string { return "heuristic" }

func (h Heuristic) Embed(ctx context.Context, problem, hardware *graph.Graph, params Params) (Embedding, error) {
	params = params.withDefaults()
	if problem.Order() == 0 {
		return Embedding{}, nil
	}
	notFound := &NotFoundError{Algorithm: h.Name(), Tries: params.Tries, Order: problem.Order()}
	if problem.Order() > hardware.Order() {
		return nil, notFound
	}

	rng := rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15))
	s := newSearch(problem, hardware)
	for range params.Tries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := s.attempt(ctx, rng)
		if err != nil {
			return nil, err
		}
		if emb != nil && emb.Validate(problem, hardware) == nil {
			return emb, nil
		}
	}
	return nil, notFound
}

type search struct {
	probVerts []int64
	probAdj   map[int64][]int64
	hwVerts   []int64
	hwAdj     map[int64][]int64

	// base is the per-chain overlap penalty. No simple path of unused
	// vertices costs as much as one shared vertex.
	base float64
}

func newSearch(problem, hardware *graph.Graph) *search {
	s := &search{
		probVerts: problem.Vertices(),
		probAdj:   make(map[int64][]int64),
		hwVerts:   hardware.Vertices(),
		hwAdj:     make(map[int64][]int64),
		base:      float64(max(hardware.Order(), 2)),
	}
	for _, v := range s.probVerts {
		s.probAdj[v] = problem.Neighbors(v)
	}
	for _, q := range s.hwVerts {
		s.hwAdj[q] = hardware.Neighbors(q)
	}
	return s
}

func shuffle(rng *rand.Rand, ids []int64) {
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// placementOrder is a breadth-first order over every component, with the
// start vertices and neighbour lists shuffled.
func (s *search) placementOrder(rng *rand.Rand) []int64 {
	starts := slices.Clone(s.probVerts)
	shuffle(rng, starts)
	seen := make(map[int64]bool, len(starts))
	order := make([]int64, 0, len(starts))
	for _, start := range starts {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []int64{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			nbrs := slices.Clone(s.probAdj[v])
			shuffle(rng, nbrs)
			for _, u := range nbrs {
				if !seen[u] {
					seen[u] = true
					queue = append(queue, u)
				}
			}
		}
	}
	return order
}

// attempt runs one try. It returns nil when the chains could not be made
// disjoint within maxRounds.
func (s *search) attempt(ctx context.Context, rng *rand.Rand) (Embedding, error) {
	st := &state{search: s, emb: make(Embedding, len(s.probVerts)), usage: make(map[int64]int)}
	for _, v := range s.placementOrder(rng) {
		if !st.place(v, rng) {
			return nil, nil
		}
	}

	order := slices.Clone(s.probVerts)
	for range maxRounds {
		if !st.overlapping() {
			return st.emb, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shuffle(rng, order)
		for _, v := range order {
			st.remove(v)
			if !st.place(v, rng) {
				return nil, nil
			}
		}
	}
	if st.overlapping() {
		return nil, nil
	}
	return st.emb, nil
}

// state is the embedding under construction. usage counts the chains
// holding each hardware vertex.
type state struct {
	*search
	emb   Embedding
	usage map[int64]int
}

func (st *state) overlapping() bool {
	for _, n := range st.usage {
		if n > 1 {
			return true
		}
	}
	return false
}

func (st *state) remove(v int64) {
	for _, q := range st.emb[v] {
		if st.usage[q]--; st.usage[q] == 0 {
			delete(st.usage, q)
		}
	}
	delete(st.emb, v)
}

func (st *state) place(v int64, rng *rand.Rand) bool {
	var placed []int64
	for _, u := range st.probAdj[v] {
		if _, ok := st.emb[u]; ok {
			placed = append(placed, u)
		}
	}

	var chain []int64
	if len(placed) == 0 {
		chain = st.seed(rng)
	} else {
		chain = st.grow(placed, rng)
	}
	if chain == nil {
		return false
	}
	st.emb[v] = chain
	for _, q := range chain {
		st.usage[q]++
	}
	return true
}

// weight is the cost of adding q to a chain.
func (st *state) weight(q int64) float64 {
	return math.Pow(st.base, float64(st.usage[q]))
}

// seed picks a least-used hardware vertex, preferring one with the most
// unused neighbours and breaking remaining ties uniformly at random.
func (st *state) seed(rng *rand.Rand) []int64 {
	best, bestUse, bestFree, ties := int64(0), math.MaxInt, -1, 0
	for _, q := range st.hwVerts {
		use := st.usage[q]
		free := 0
		for _, n := range st.hwAdj[q] {
			if st.usage[n] == 0 {
				free++
			}
		}
		switch {
		case use < bestUse || (use == bestUse && free > bestFree):
			best, bestUse, bestFree, ties = q, use, free, 1
		case use == bestUse && free == bestFree:
			ties++
			if rng.IntN(ties) == 0 {
				best = q
			}
		}
	}
	if bestFree < 0 {
		return nil
	}
	return []int64{best}
}

// reach holds a vertex-weighted shortest-path search started from every
// vertex of one chain. Entering a vertex costs its weight.
type reach struct {
	source map[int64]bool
	dist   map[int64]float64
	parent map[int64]int64
}

func (st *state) reachFrom(chain []int64) reach {
	r := reach{
		source: make(map[int64]bool, len(chain)),
		dist:   make(map[int64]float64),
		parent: make(map[int64]int64),
	}
	pq := &frontier{}
	for _, q := range chain {
		r.source[q] = true
		r.dist[q] = 0
		heap.Push(pq, item{q, 0})
	}
	for pq.Len() > 0 {
		it := heap.Pop(pq).(item)
		if it.dist > r.dist[it.q] {
			continue
		}
		for _, n := range st.hwAdj[it.q] {
			d := it.dist + st.weight(n)
			if old, seen := r.dist[n]; seen && old <= d {
				continue
			}
			r.dist[n] = d
			r.parent[n] = it.q
			heap.Push(pq, item{n, d})
		}
	}
	return r
}

// grow roots a new chain at the hardware vertex that is cheapest to
// connect to every placed neighbour chain, then adds the cheapest path
// from the root to each of them. A root inside a neighbour chain needs no
// path to it but still pays its own overlap weight.
func (st *state) grow(placed []int64, rng *rand.Rand) []int64 {
	reaches := make([]reach, len(placed))
	for i, u := range placed {
		reaches[i] = st.reachFrom(st.emb[u])
	}

	root, bestCost, ties := int64(0), math.Inf(1), 0
	for _, q := range st.hwVerts {
		w := st.weight(q)
		cost := w
		for _, r := range reaches {
			if r.source[q] {
				continue
			}
			d, ok := r.dist[q]
			if !ok {
				cost = math.Inf(1)
				break
			}
			cost += d - w
		}
		switch {
		case math.IsInf(cost, 1):
		case cost < bestCost:
			root, bestCost, ties = q, cost, 1
		case cost == bestCost:
			ties++
			if rng.IntN(ties) == 0 {
				root = q
			}
		}
	}
	if math.IsInf(bestCost, 1) {
		return nil
	}

	chain := []int64{root}
	in := map[int64]bool{root: true}
	for _, r := range reaches {
		for q := root; !r.source[q]; q = r.parent[q] {
			if !in[q] {
				in[q] = true
				chain = append(chain, q)
			}
		}
	}
	return chain
}

type item struct {
	q    int64
	dist float64
}

// frontier is a min-heap of items by distance.
type frontier []item

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].dist < f[j].dist }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)        { *f = append(*f, x.(item)) }
func (f *frontier) Pop() any {
	old := *f
	it := old[len(old)-1]
	*f = old[:len(old)-1]
	return it
}
