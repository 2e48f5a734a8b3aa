// Package store provides SQLite-backed storage for compiled programs,
// embeddings and execution results.
//
// Tables:
//   - composites: canonical JSON bodies keyed by ir.CompositeHash
//   - embeddings: minor-embedding chains keyed by problem graph hash,
//     hardware graph hash and algorithm
//   - job_results: per-circuit accelerator output for each job
//
// Writes are idempotent. Re-writing an identical composite or embedding is
// a no-op, so a cache can be filled from repeated CLI runs.
//
// Listing queries use ORDER BY ... COLLATE BINARY so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Schema changes after the initial schema.sql are listed in the
// migrations table and tracked with PRAGMA user_version.
package store
