package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/xacc/internal/embedding"
	"github.com/roach88/xacc/internal/ir"
)

// WriteEmbedding caches emb for the given problem and hardware graph
// hashes. A later write for the same key replaces the chains.
func (s *Store) WriteEmbedding(ctx context.Context, problemHash, hardwareHash, algorithm string, emb embedding.Embedding) error {
	chains, err := marshalChains(emb)
	if err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO embeddings (problem_hash, hardware_hash, algorithm, chains)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(problem_hash, hardware_hash, algorithm)
		DO UPDATE SET chains = excluded.chains
	`, problemHash, hardwareHash, algorithm, chains)
	if err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}

// ReadEmbedding returns the cached embedding for the key.
// Returns sql.ErrNoRows (wrapped) on a cache miss.
func (s *Store) ReadEmbedding(ctx context.Context, problemHash, hardwareHash, algorithm string) (embedding.Embedding, error) {
	var chains string
	err := s.db.QueryRowContext(ctx, `
		SELECT chains FROM embeddings
		WHERE problem_hash = ? AND hardware_hash = ? AND algorithm = ?
	`, problemHash, hardwareHash, algorithm).Scan(&chains)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	emb, err := unmarshalChains(chains)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	return emb, nil
}

// marshalChains encodes an embedding as canonical JSON keyed by the
// decimal logical vertex id.
func marshalChains(emb embedding.Embedding) (string, error) {
	m := make(map[string]any, len(emb))
	for v, chain := range emb {
		qubits := make([]any, len(chain))
		for i, q := range chain {
			qubits[i] = q
		}
		m[strconv.FormatInt(v, 10)] = qubits
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal chains: %w", err)
	}
	return string(data), nil
}

// unmarshalChains parses chains JSON. Uses json.Number so qubit ids
// survive without float64 rounding.
func unmarshalChains(data string) (embedding.Embedding, error) {
	var raw map[string][]json.Number
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal chains: %w", err)
	}

	emb := make(embedding.Embedding, len(raw))
	for key, chain := range raw {
		v, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshal chains: vertex %q: %w", key, err)
		}
		qubits := make([]int64, len(chain))
		for i, n := range chain {
			if qubits[i], err = n.Int64(); err != nil {
				return nil, fmt.Errorf("unmarshal chains: vertex %d: %w", v, err)
			}
		}
		emb[v] = qubits
	}
	return emb, nil
}
