package harness

// TraceEvent is one accelerator result as read back from the store.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Circuit string `json:"circuit"`
	Output  string `json:"output"`
}

// SubCircuit is one circuit's remainder after the shared base.
type SubCircuit struct {
	Circuit      string   `json:"circuit"`
	Instructions []string `json:"instructions"`
}

// Decomposition is the observed base/sub-circuit split of a scenario's
// circuits.
type Decomposition struct {
	Shared bool         `json:"shared"`
	Valid  bool         `json:"valid"`
	Base   []string     `json:"base"`
	Subs   []SubCircuit `json:"subs"`
}

// Sub returns the sub-circuit for the named input circuit.
func (d *Decomposition) Sub(circuit string) (SubCircuit, bool) {
	for _, s := range d.Subs {
		if s.Circuit == circuit {
			return s, true
		}
	}
	return SubCircuit{}, false
}

// GraphEdge is one weighted coupler of a problem graph.
type GraphEdge struct {
	U      int64   `json:"u"`
	V      int64   `json:"v"`
	Weight float64 `json:"weight"`
}

// GraphVertex is one biased vertex of a problem graph.
type GraphVertex struct {
	ID   int64   `json:"id"`
	Bias float64 `json:"bias"`
}

// GraphSnapshot captures a problem graph.
type GraphSnapshot struct {
	Order    int           `json:"order"`
	Size     int           `json:"size"`
	Vertices []GraphVertex `json:"vertices"`
	Edges    []GraphEdge   `json:"edges"`
}

// EmbeddingSnapshot summarizes an embedding search. Chains are left out
// because they depend on the search's random choices.
type EmbeddingSnapshot struct {
	Found          bool `json:"found"`
	Qubits         int  `json:"qubits"`
	MaxChainLength int  `json:"max_chain_length"`
	Terms          int  `json:"terms"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// JobID is the id of the circuit run, if any.
	JobID string `json:"job_id,omitempty"`

	// Trace contains the job's results in store order.
	Trace []TraceEvent `json:"trace"`

	// Received lists circuit names in the order the accelerator saw them.
	Received []string `json:"received,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Decomposition *Decomposition     `json:"decomposition,omitempty"`
	Graph         *GraphSnapshot     `json:"graph,omitempty"`
	Embedding     *EmbeddingSnapshot `json:"embedding,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
