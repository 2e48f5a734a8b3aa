package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/xacc/internal/ansatz"
	"github.com/roach88/xacc/internal/compiler"
	"github.com/roach88/xacc/internal/embedding"
	"github.com/roach88/xacc/internal/exec"
	"github.com/roach88/xacc/internal/graph"
	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/store"
	"github.com/roach88/xacc/internal/testutil"
)

// embedAlgorithm is the search every scenario embeds with.
const embedAlgorithm = "heuristic"

// Harness is the test execution engine.
// It runs scenarios against a fresh store with a fixed job id.
type Harness struct {
	store  *store.Store
	acc    *exec.TraceAccelerator
	jobIDs exec.JobIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Compile the scenario's CUE directory
//  2. Decompose the circuits, run them on the trace accelerator and read
//     the job back from the store
//  3. Convert the program to a problem graph and embed it when hardware
//     is given
//  4. Evaluate assertions
//
// Errors are returned for broken scenarios (bad CUE, unknown names,
// accelerator failures). Assertion failures are reported on the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	unit, err := loadUnit(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}

	h := &Harness{
		store:  st,
		acc:    &exec.TraceAccelerator{},
		jobIDs: testutil.NewFixedJobIDGenerator(scenario.JobID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	if len(scenario.Circuits) > 0 {
		if err := h.executeCircuits(ctx, unit, scenario.Circuits, result); err != nil {
			return nil, fmt.Errorf("failed to execute circuits: %w", err)
		}
	}

	if scenario.Program != "" {
		problem, err := h.executeProgram(unit, scenario, result)
		if err != nil {
			return nil, fmt.Errorf("failed to build problem graph: %w", err)
		}
		if scenario.Hardware != "" {
			if err := h.executeEmbedding(ctx, problem, scenario, result); err != nil {
				return nil, fmt.Errorf("failed to embed: %w", err)
			}
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// loadUnit compiles every CUE file in dir, stopping at the first error.
func loadUnit(dir string) (*compiler.Unit, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	unit, errs := compiler.CompileUnit(value, true)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return unit, nil
}

// executeCircuits decomposes the named circuits and, if the
// decomposition reproduces them, runs it and records the stored trace.
func (h *Harness) executeCircuits(ctx context.Context, unit *compiler.Unit, names []string, result *Result) error {
	circuits := make([]*ir.Composite, 0, len(names))
	for _, name := range names {
		c, ok := unit.Circuit(name)
		if !ok {
			return fmt.Errorf("circuit not found: %s", name)
		}
		circuits = append(circuits, c)
	}

	obs := ansatz.FromObservedComposites(circuits)
	result.Decomposition = snapshotDecomposition(obs, circuits)
	if !result.Decomposition.Valid {
		return nil
	}

	runner := exec.NewRunner(h.acc,
		exec.WithLogger(h.logger),
		exec.WithJobIDGenerator(h.jobIDs),
	)
	job, err := runner.Run(ctx, obs)
	if err != nil {
		return err
	}

	if err := h.store.WriteJobResults(ctx, job.Records()); err != nil {
		return fmt.Errorf("failed to write job results: %w", err)
	}
	records, err := h.store.ReadJobResults(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to read job results: %w", err)
	}

	result.JobID = job.ID
	for _, r := range records {
		result.Trace = append(result.Trace, TraceEvent{Seq: r.Seq, Circuit: r.Circuit, Output: r.Output})
	}
	result.Received = h.acc.Received()
	return nil
}

func snapshotDecomposition(obs *ansatz.Observed, inputs []*ir.Composite) *Decomposition {
	d := &Decomposition{
		Shared: obs.Shared(),
		Valid:  obs.Validate(inputs),
		Base:   instructionLines(obs.Base),
		Subs:   make([]SubCircuit, 0, len(obs.Subs)),
	}
	for i, sub := range obs.Subs {
		d.Subs = append(d.Subs, SubCircuit{
			Circuit:      inputs[i].Name(),
			Instructions: instructionLines(sub),
		})
	}
	return d
}

func instructionLines(c *ir.Composite) []string {
	lines := []string{}
	for inst := range ir.Elementary(c) {
		lines = append(lines, inst.String())
	}
	return lines
}

// executeProgram binds and converts the scenario's program.
func (h *Harness) executeProgram(unit *compiler.Unit, scenario *Scenario, result *Result) (*graph.Graph, error) {
	p, ok := unit.Program(scenario.Program)
	if !ok {
		return nil, fmt.Errorf("anneal program not found: %s", scenario.Program)
	}
	if len(scenario.Values) > 0 {
		bound, err := p.Bind(scenario.Values)
		if err != nil {
			return nil, err
		}
		p = bound
	}

	g, err := p.ToGraph()
	if err != nil {
		return nil, err
	}

	snap := &GraphSnapshot{
		Order:    g.Order(),
		Size:     g.Size(),
		Vertices: make([]GraphVertex, 0, g.Order()),
		Edges:    make([]GraphEdge, 0, g.Size()),
	}
	for _, id := range g.Vertices() {
		snap.Vertices = append(snap.Vertices, GraphVertex{ID: id, Bias: g.Bias(id)})
	}
	for _, e := range g.Edges() {
		snap.Edges = append(snap.Edges, GraphEdge{U: e.U, V: e.V, Weight: e.Weight})
	}
	result.Graph = snap
	return g, nil
}

// executeEmbedding searches for an embedding of problem, caches it in the
// store and applies it. An exhausted search is a result, not an error.
func (h *Harness) executeEmbedding(ctx context.Context, problem *graph.Graph, scenario *Scenario, result *Result) error {
	hardware, err := loadHardware(scenario.Hardware)
	if err != nil {
		return err
	}
	algo, err := embedding.Lookup(embedAlgorithm)
	if err != nil {
		return err
	}

	emb, err := algo.Embed(ctx, problem, hardware, embedding.Params{Seed: scenario.Seed})
	if embedding.IsNotFound(err) {
		result.Embedding = &EmbeddingSnapshot{Found: false}
		return nil
	}
	if err != nil {
		return err
	}

	problemHash, err := problem.Hash()
	if err != nil {
		return err
	}
	hardwareHash, err := hardware.Hash()
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s:%d", embedAlgorithm, scenario.Seed)
	if err := h.store.WriteEmbedding(ctx, problemHash, hardwareHash, key, emb); err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	cached, err := h.store.ReadEmbedding(ctx, problemHash, hardwareHash, key)
	if err != nil {
		return fmt.Errorf("failed to read cached embedding: %w", err)
	}

	embedded, err := embedding.Apply(problem, hardware, cached, 1.0)
	if err != nil {
		return err
	}
	result.Embedding = &EmbeddingSnapshot{
		Found:          true,
		Qubits:         cached.Qubits(),
		MaxChainLength: cached.MaxChainLength(),
		Terms:          len(embedded.Terms()),
	}
	return nil
}

func loadHardware(spec string) (*graph.Graph, error) {
	if isHardwareFile(spec) {
		g, _, err := graph.LoadFile(spec)
		return g, err
	}
	return graph.ParseTopology(spec)
}
