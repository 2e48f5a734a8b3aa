package exec

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/xacc/internal/ir"
)

// Accelerator executes a circuit. Implementations may be called from
// several goroutines at once, each with a different composite.
type Accelerator interface {
	Name() string
	Execute(ctx context.Context, c *ir.Composite) (Result, error)
}

// Result is an accelerator's output for one circuit.
type Result struct {
	Circuit string `json:"circuit"`
	Output  string `json:"output"`
}

// TraceAccelerator is a deterministic accelerator that returns the
// enabled elementary instructions it received, one per line. Circuits
// named in Fail return the mapped error instead.
type TraceAccelerator struct {
	Fail map[string]error

	mu       sync.Mutex
	received []string
}

var _ Accelerator = (*TraceAccelerator)(nil)

// Name returns "trace".
func (*TraceAccelerator) Name() string { return "trace" }

// Execute records c and returns its instruction trace.
func (a *TraceAccelerator) Execute(ctx context.Context, c *ir.Composite) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	a.mu.Lock()
	a.received = append(a.received, c.Name())
	a.mu.Unlock()

	if err := a.Fail[c.Name()]; err != nil {
		return Result{}, err
	}

	var lines []string
	for inst := range ir.Elementary(c) {
		lines = append(lines, inst.String())
	}
	return Result{Circuit: c.Name(), Output: strings.Join(lines, "\n")}, nil
}

// Received returns the names of executed circuits, sorted.
func (a *TraceAccelerator) Received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := slices.Clone(a.received)
	slices.Sort(out)
	return out
}
