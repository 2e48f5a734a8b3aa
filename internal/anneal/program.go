// Package anneal implements annealing programs: composites whose children
// are DWQMI bias and coupler terms, and their conversion to problem graphs.
package anneal

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/xacc/internal/graph"
	"github.com/roach88/xacc/internal/ir"
)

// Program kind tags.
const (
	TagIsing = "ising"
	TagQUBO  = "qubo"
)

const kind = "annealing program"

var (
	// ErrUnboundWeight is returned when a term still carries a symbolic
	// weight where a number is required.
	ErrUnboundWeight = errors.New("term weight is not bound to a number")

	// ErrNotAnnealing is returned when a composite holds non-DWQMI leaves.
	ErrNotAnnealing = errors.New("composite is not an annealing program")
)

// Program is an annealing composite. All instruction-tree operations come
// from the embedded *ir.Composite. MapBits, Depth, Parameter and
// SetParameter panic with *ir.UnsupportedOperationError on any composite
// tagged ising or qubo, whether reached through the Program, its embedded
// Composite or the ir.Instruction interface. Parameters still lists the
// declared variables.
type Program struct {
	*ir.Composite
}

func init() {
	ir.RestrictTag(TagIsing, kind)
	ir.RestrictTag(TagQUBO, kind)
}

// NewProgram returns an empty Ising program.
func NewProgram(name string, variables ...string) *Program {
	c := ir.NewComposite(name, variables...)
	c.SetTag(TagIsing)
	return &Program{Composite: c}
}

// FromComposite wraps c after checking that every leaf is a DWQMI term.
// An untagged composite is tagged "ising".
func FromComposite(c *ir.Composite) (*Program, error) {
	for inst := range ir.All(c) {
		if inst.IsComposite() {
			continue
		}
		if _, ok := inst.(*ir.DWQMI); !ok {
			return nil, fmt.Errorf("%s: %w: found %q", c.Name(), ErrNotAnnealing, inst.Name())
		}
	}
	if c.Tag() == "" {
		c.SetTag(TagIsing)
	}
	return &Program{Composite: c}, nil
}

// AddTerm appends a coupler between q1 and q2, or a bias when they match.
func (p *Program) AddTerm(q1, q2 int, weight float64) error {
	return p.AddInstruction(ir.NewDWQMI(q1, q2, weight))
}

// AddBias appends a bias on q.
func (p *Program) AddBias(q int, weight float64) error {
	return p.AddInstruction(ir.NewBias(q, weight))
}

// Terms returns the enabled DWQMI terms in pre-order.
func (p *Program) Terms() []*ir.DWQMI {
	var terms []*ir.DWQMI
	for inst := range ir.Elementary(p.Composite) {
		if d, ok := inst.(*ir.DWQMI); ok {
			terms = append(terms, d)
		}
	}
	return terms
}

// Biases returns the weights of bias terms in child order. Symbolic
// weights are reported as NaN.
func (p *Program) Biases() []float64 { return p.weights(true) }

// Couplers returns the weights of coupler terms in child order. Symbolic
// weights are reported as NaN.
func (p *Program) Couplers() []float64 { return p.weights(false) }

func (p *Program) weights(bias bool) []float64 {
	var out []float64
	for _, t := range p.Terms() {
		if t.IsBias() != bias {
			continue
		}
		w, ok := ir.AsFloat(t.Weight())
		if !ok {
			w = math.NaN()
		}
		out = append(out, w)
	}
	return out
}

// Clone returns a deep copy that is still a *Program.
func (p *Program) Clone() ir.Instruction {
	return &Program{Composite: p.Composite.CloneComposite()}
}

// CloneProgram is Clone with the concrete type preserved.
func (p *Program) CloneProgram() *Program {
	return &Program{Composite: p.Composite.CloneComposite()}
}

// Bind returns a copy with every symbolic weight replaced by the value at
// the matching variable position.
func (p *Program) Bind(values []float64) (*Program, error) {
	c, err := p.Composite.Bind(values)
	if err != nil {
		return nil, err
	}
	return &Program{Composite: c}, nil
}

// MergePolicy decides how repeated terms on the same vertex or vertex pair
// combine in ToGraph.
type MergePolicy int

const (
	// MergeSum adds repeated weights together.
	MergeSum MergePolicy = iota
	// MergeOverwrite keeps the last weight seen.
	MergeOverwrite
)

func (m MergePolicy) String() string {
	switch m {
	case MergeSum:
		return "sum"
	case MergeOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(m))
	}
}

// GraphOption configures ToGraph.
type GraphOption func(*graphConfig)

type graphConfig struct {
	merge MergePolicy
}

// WithMergePolicy selects how repeated terms combine.
func WithMergePolicy(m MergePolicy) GraphOption {
	return func(c *graphConfig) { c.merge = m }
}

// ToGraph builds the problem graph: one vertex per qubit, bias terms as
// vertex biases, coupler terms as weighted edges. Disabled terms are
// skipped. Every weight must be numeric.
func (p *Program) ToGraph(opts ...GraphOption) (*graph.Graph, error) {
	cfg := graphConfig{merge: MergeSum}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := graph.New()
	ensure := func(q int) error {
		if g.HasVertex(int64(q)) {
			return nil
		}
		return g.AddVertexWithID(int64(q), graph.Properties{})
	}

	for _, t := range p.Terms() {
		w, ok := ir.AsFloat(t.Weight())
		if !ok {
			return nil, fmt.Errorf("%s: term %q: %w", p.Name(), t.String(), ErrUnboundWeight)
		}
		q1, q2 := t.Qubits()
		if err := ensure(q1); err != nil {
			return nil, err
		}
		if err := ensure(q2); err != nil {
			return nil, err
		}

		if t.IsBias() {
			v := int64(q1)
			if cfg.merge == MergeSum {
				w += g.Bias(v)
			}
			if err := g.SetBias(v, w); err != nil {
				return nil, err
			}
			continue
		}

		u, v := int64(q1), int64(q2)
		if prev, exists := g.EdgeWeight(u, v); exists && cfg.merge == MergeSum {
			w += prev
		}
		if err := g.AddEdge(u, v, w); err != nil {
			return nil, err
		}
	}
	return g, nil
}
