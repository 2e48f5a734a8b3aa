package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/xacc/internal/ir"
)

// CompositeRecord is a stored composite without its decoded body.
type CompositeRecord struct {
	ID        string
	Name      string
	Tag       string
	IRVersion string
}

// WriteComposite stores c under its content hash and returns the hash.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same
// composite twice stores one row.
func (s *Store) WriteComposite(ctx context.Context, c *ir.Composite) (string, error) {
	id, err := ir.CompositeHash(c)
	if err != nil {
		return "", fmt.Errorf("write composite: %w", err)
	}
	body, err := ir.MarshalComposite(c)
	if err != nil {
		return "", fmt.Errorf("write composite: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO composites (id, name, tag, body, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, c.Name(), c.Tag(), string(body), ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("write composite: %w", err)
	}
	return id, nil
}

// ReadComposite decodes the composite stored under id.
// Returns sql.ErrNoRows (wrapped) if id is unknown.
func (s *Store) ReadComposite(ctx context.Context, id string) (*ir.Composite, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM composites WHERE id = ?`, id).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("read composite %s: %w", id, err)
	}
	c, err := ir.UnmarshalComposite([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("read composite %s: %w", id, err)
	}
	return c, nil
}

// ListComposites returns every stored composite ordered by name, then id.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListComposites(ctx context.Context) ([]CompositeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, tag, ir_version
		FROM composites
		ORDER BY name COLLATE BINARY ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query composites: %w", err)
	}
	defer rows.Close()

	records := []CompositeRecord{}
	for rows.Next() {
		var r CompositeRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Tag, &r.IRVersion); err != nil {
			return nil, fmt.Errorf("scan composite: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate composites: %w", err)
	}
	return records, nil
}

// HasComposite reports whether id is stored.
func (s *Store) HasComposite(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM composites WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query composite %s: %w", id, err)
	}
	return true, nil
}
