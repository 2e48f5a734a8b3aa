package testutil

import (
	"fmt"
	"sync"
)

// FixedJobIDGenerator returns the same job id every time. Golden traces
// compare byte-for-byte, so tests pin the id.
//
// Safe for concurrent use.
type FixedJobIDGenerator struct {
	id string
}

// NewFixedJobIDGenerator returns a generator for id, or "test-job-default"
// when id is empty.
func NewFixedJobIDGenerator(id string) *FixedJobIDGenerator {
	if id == "" {
		id = "test-job-default"
	}
	return &FixedJobIDGenerator{id: id}
}

// Generate implements exec.JobIDGenerator.
func (g *FixedJobIDGenerator) Generate() string {
	return g.id
}

// SequentialJobIDGenerator returns "job-1", "job-2", ... and can be reset
// so a scenario replays with identical ids.
type SequentialJobIDGenerator struct {
	mu  sync.Mutex
	seq int
}

// Generate implements exec.JobIDGenerator.
func (g *SequentialJobIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("job-%d", g.seq)
}

// Reset restarts the sequence at job-1.
func (g *SequentialJobIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
