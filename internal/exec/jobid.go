package exec

import "github.com/google/uuid"

// JobIDGenerator names jobs. Tests substitute the fixed and sequential
// generators from testutil.
type JobIDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 strings. Their leading timestamp makes
// stored jobs list in submission order. The zero value is ready to use
// from any goroutine.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
