package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// pragma reads a single PRAGMA value as text.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return value
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xacc.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file was not created: %v", err)
	}

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
	} {
		if got := pragma(t, s, name); got != want {
			t.Errorf("PRAGMA %s = %q, want %q", name, got, want)
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	// Every call must see the same private database.
	ctx := context.Background()
	if _, err := s.WriteComposite(ctx, createTestComposite(t, "a")); err != nil {
		t.Fatalf("WriteComposite() failed: %v", err)
	}
	list, err := s.ListComposites(ctx)
	if err != nil {
		t.Fatalf("ListComposites() failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d composites, want 1", len(list))
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xacc.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	id, err := s.WriteComposite(ctx, createTestComposite(t, "kept"))
	if err != nil {
		t.Fatalf("WriteComposite() failed: %v", err)
	}
	s.Close()

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("reopen %d failed: %v", i, err)
		}
		ok, err := s.HasComposite(ctx, id)
		if err != nil || !ok {
			t.Errorf("reopen %d: HasComposite = %v, %v", i, ok, err)
		}
		if v := pragma(t, s, "user_version"); v != "1" {
			t.Errorf("reopen %d: user_version = %s", i, v)
		}
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/xacc.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose(t *testing.T) {
	if err := (&Store{}).Close(); err != nil {
		t.Errorf("Close() on zero Store: %v", err)
	}

	s := createTestStore(t)
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close() // must not panic
}

func TestSchema(t *testing.T) {
	s := createTestStore(t)

	tables := map[string][]string{
		"composites":  {"id", "name", "tag", "body", "ir_version"},
		"embeddings":  {"id", "problem_hash", "hardware_hash", "algorithm", "chains"},
		"job_results": {"job_id", "seq", "circuit", "accelerator", "output"},
	}
	for table, expected := range tables {
		columns := getTableColumns(t, s.db, table)
		for _, col := range expected {
			if !slices.Contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}

	if indexes := getTableIndexes(t, s.db, "composites"); !slices.Contains(indexes, "idx_composites_name") {
		t.Errorf("composites missing idx_composites_name, got %v", indexes)
	}
	if indexes := getTableIndexes(t, s.db, "job_results"); !slices.Contains(indexes, "idx_job_results_circuit") {
		t.Errorf("job_results missing idx_job_results_circuit, got %v", indexes)
	}
}

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		if m.version != i+1 {
			t.Errorf("migrations[%d].version = %d, want %d", i, m.version, i+1)
		}
	}
	if currentSchemaVersion != len(migrations) {
		t.Errorf("currentSchemaVersion = %d, want %d", currentSchemaVersion, len(migrations))
	}
}

func TestMigrations_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xacc.db")

	// A database written before any migration existed.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if v := pragma(t, s, "user_version"); v != "1" {
		t.Errorf("user_version = %s after migration, want 1", v)
	}
	if indexes := getTableIndexes(t, s.db, "job_results"); !slices.Contains(indexes, "idx_job_results_circuit") {
		t.Errorf("expected idx_job_results_circuit after migration, got %v", indexes)
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("table_info(%s): %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan table_info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	if err != nil {
		t.Fatalf("list indexes of %s: %v", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index name: %v", err)
		}
		names = append(names, name)
	}
	return names
}
