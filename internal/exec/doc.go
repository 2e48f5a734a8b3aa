// Package exec dispatches an observed-ansatz decomposition to an
// accelerator.
//
// The base circuit runs once. The sub-circuits are independent, so they
// run concurrently on a bounded worker pool. Each worker receives its own
// deep copy of a sub-circuit; nothing handed to an accelerator is shared
// with the caller or with another worker.
//
// Results are reported in input order regardless of completion order, and
// every run is stamped with a job id from a JobIDGenerator (UUIDv7 in
// production, fixed ids in tests).
package exec
