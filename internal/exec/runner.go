package exec

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/xacc/internal/ansatz"
	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/store"
)

// DefaultMaxWorkers bounds concurrent sub-circuit executions.
const DefaultMaxWorkers = 4

// Job is the outcome of one run. Base is nil when the decomposition
// shares nothing. Subs[i] is the result for the i-th sub-circuit.
type Job struct {
	ID          string   `json:"id"`
	Accelerator string   `json:"accelerator"`
	Base        *Result  `json:"base,omitempty"`
	Subs        []Result `json:"subs"`
}

// Records flattens the job into store rows: the base (if any) first,
// then each sub-circuit in order.
func (j *Job) Records() []store.JobResult {
	var out []store.JobResult
	add := func(r Result) {
		out = append(out, store.JobResult{
			JobID:       j.ID,
			Seq:         int64(len(out)),
			Circuit:     r.Circuit,
			Accelerator: j.Accelerator,
			Output:      r.Output,
		})
	}
	if j.Base != nil {
		add(*j.Base)
	}
	for _, r := range j.Subs {
		add(r)
	}
	return out
}

// Runner executes decompositions on an accelerator.
type Runner struct {
	acc        Accelerator
	logger     *slog.Logger
	jobIDs     JobIDGenerator
	maxWorkers int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithJobIDGenerator replaces the UUIDv7 job id generator.
func WithJobIDGenerator(g JobIDGenerator) RunnerOption {
	return func(r *Runner) { r.jobIDs = g }
}

// WithMaxWorkers bounds concurrent sub-circuit executions. Values below
// one are ignored.
func WithMaxWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 1 {
			r.maxWorkers = n
		}
	}
}

// NewRunner creates a Runner for acc.
func NewRunner(acc Accelerator, opts ...RunnerOption) *Runner {
	r := &Runner{
		acc:        acc,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobIDs:     UUIDv7Generator{},
		maxWorkers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunCircuits decomposes circuits, checks the decomposition against them
// and runs it.
func (r *Runner) RunCircuits(ctx context.Context, circuits []*ir.Composite) (*Job, error) {
	obs := ansatz.FromObservedComposites(circuits)
	if err := obs.Check(circuits); err != nil {
		return nil, &RunError{
			Code:    ErrCodeDecomposition,
			Message: "decomposition does not reproduce its inputs",
			Err:     err,
		}
	}
	return r.Run(ctx, obs)
}

// Run executes obs: the base once, if shared, then every sub-circuit on
// the worker pool. The first failure cancels the remaining work.
func (r *Runner) Run(ctx context.Context, obs *ansatz.Observed) (*Job, error) {
	job := &Job{
		ID:          r.jobIDs.Generate(),
		Accelerator: r.acc.Name(),
		Subs:        make([]Result, len(obs.Subs)),
	}
	log := r.logger.With("job", job.ID, "accelerator", job.Accelerator)
	log.Info("job started", "subs", len(obs.Subs), "shared", obs.Shared())

	if err := ctx.Err(); err != nil {
		return nil, newCancelledError(job.ID, err)
	}

	if obs.Shared() {
		res, err := r.execute(ctx, job.ID, obs.Base.CloneComposite())
		if err != nil {
			log.Error("base failed", "error", err)
			return nil, err
		}
		job.Base = &res
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for i, sub := range obs.Subs {
		c := sub.CloneComposite()
		g.Go(func() error {
			res, err := r.execute(gctx, job.ID, c)
			if err != nil {
				return err
			}
			job.Subs[i] = res
			log.Debug("sub-circuit done", "circuit", c.Name())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("job failed", "error", err)
		return nil, err
	}

	log.Info("job finished")
	return job, nil
}

// execute runs one circuit, mapping context errors to CANCELLED and
// everything else to ACCELERATOR_FAILED.
func (r *Runner) execute(ctx context.Context, jobID string, c *ir.Composite) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, newCancelledError(jobID, err)
	}
	res, err := r.acc.Execute(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, newCancelledError(jobID, fmt.Errorf("%s: %w", c.Name(), err))
		}
		return Result{}, newAcceleratorError(jobID, c.Name(), err)
	}
	if res.Circuit == "" {
		res.Circuit = c.Name()
	}
	return res, nil
}
