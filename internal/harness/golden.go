package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/xacc/internal/ir"
)

// Snapshot captures everything a scenario produced that is deterministic.
// It is serialized with canonical JSON for byte-exact comparison.
type Snapshot struct {
	ScenarioName  string
	JobID         string
	Decomposition *Decomposition
	Trace         []TraceEvent
	Graph         *GraphSnapshot
	Embedding     *EmbeddingSnapshot
}

// NewSnapshot builds the snapshot of result under name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName:  name,
		JobID:         result.JobID,
		Decomposition: result.Decomposition,
		Trace:         result.Trace,
		Graph:         result.Graph,
		Embedding:     result.Embedding,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical
// JSON serialization. Absent sections are left out.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{"scenario_name": s.ScenarioName}
	if s.JobID != "" {
		m["job_id"] = s.JobID
	}

	if d := s.Decomposition; d != nil {
		subs := make([]any, len(d.Subs))
		for i, sub := range d.Subs {
			subs[i] = map[string]any{
				"circuit":      sub.Circuit,
				"instructions": stringList(sub.Instructions),
			}
		}
		m["decomposition"] = map[string]any{
			"shared": d.Shared,
			"valid":  d.Valid,
			"base":   stringList(d.Base),
			"subs":   subs,
		}
		trace := make([]any, len(s.Trace))
		for i, event := range s.Trace {
			trace[i] = map[string]any{
				"seq":     event.Seq,
				"circuit": event.Circuit,
				"output":  event.Output,
			}
		}
		m["trace"] = trace
	}

	if g := s.Graph; g != nil {
		vertices := make([]any, len(g.Vertices))
		for i, v := range g.Vertices {
			vertices[i] = []any{v.ID, v.Bias}
		}
		edges := make([]any, len(g.Edges))
		for i, e := range g.Edges {
			edges[i] = []any{e.U, e.V, e.Weight}
		}
		m["graph"] = map[string]any{
			"order":    g.Order,
			"size":     g.Size,
			"vertices": vertices,
			"edges":    edges,
		}
	}

	if e := s.Embedding; e != nil {
		m["embedding"] = map[string]any{
			"found":            e.Found,
			"qubits":           e.Qubits,
			"max_chain_length": e.MaxChainLength,
			"terms":            e.Terms,
		}
	}
	return m
}

// MarshalCanonical serializes the snapshot.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against the golden
// file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
