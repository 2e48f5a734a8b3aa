// Package harness provides conformance testing for compiled circuits and
// annealing programs.
//
// A scenario names a directory of CUE programs, compiles it, and drives
// the same pipeline the CLI uses: decomposition into a shared base and
// sub-circuits, execution on the trace accelerator, conversion of an
// annealing program to a problem graph, and minor-embedding onto
// hardware. Assertions then check what came out.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs: ../specs
//	circuits: [z_basis, x_basis]
//	program: maxcut
//	values: [2.0]
//	hardware: complete:4
//	seed: 7
//	job_id: job-1
//	assertions:
//	  - type: base_length
//	    count: 3
//	  - type: sub_instructions
//	    circuit: x_basis
//	    instructions: ["H 0", "Measure 0"]
//	  - type: edge_weight
//	    u: 0
//	    v: 1
//	    weight: 1.0
//
// Unknown fields are rejected so typos surface as load errors.
//
// # Assertion Types
//
//   - base_length, base_instructions: the shared base
//   - sub_count, sub_instructions: the per-circuit remainders
//   - validates: whether base plus sub-circuit reproduces each input
//   - executed: the circuits the accelerator ran, in any order
//   - graph_order, graph_size, edge_weight: the problem graph
//   - embeds, max_chain_length: the embedding search
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a fixed
// job id. The trace is read back from the store in sequence order, so
// golden snapshots compare byte for byte even though sub-circuits run
// concurrently. Embedding chains depend on the search's random choices and
// are left out of snapshots; their size and chain length are kept.
package harness
