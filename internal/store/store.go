// Package store persists circuit designs and suggestion history in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// Design is a named, saved circuit with its generated sketch.
type Design struct {
	ID        int64
	Name      string
	Prompt    string
	Circuit   circuit.Data
	Sketch    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DesignStore keeps designs in a local SQLite database.
type DesignStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*DesignStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.StoreError("failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	// NORMAL is safe under WAL and much faster than the FULL default.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &DesignStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("design store ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *DesignStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS designs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		prompt TEXT,
		circuit_json TEXT NOT NULL,
		sketch TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_designs_name ON designs(name);

	CREATE TABLE IF NOT EXISTS suggestions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		design_name TEXT NOT NULL,
		suggestion TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_suggestions_design ON suggestions(design_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Save upserts a design by name.
func (s *DesignStore) Save(d *Design) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("design name is required")
	}

	raw, err := json.Marshal(d.Circuit)
	if err != nil {
		return fmt.Errorf("failed to encode circuit: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO designs (name, prompt, circuit_json, sketch)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			prompt = excluded.prompt,
			circuit_json = excluded.circuit_json,
			sketch = excluded.sketch,
			updated_at = CURRENT_TIMESTAMP`,
		name, d.Prompt, string(raw), d.Sketch)
	if err != nil {
		logging.StoreError("failed to save design %q: %v", name, err)
		return fmt.Errorf("failed to save design: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		d.ID = id
	}
	logging.Store("saved design %q (%d components)", name, len(d.Circuit.Components))
	return nil
}

// Get loads a design by name.
func (s *DesignStore) Get(name string) (*Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, prompt, circuit_json, sketch, created_at, updated_at
		FROM designs WHERE name = ?`, name)

	var d Design
	var raw string
	if err := row.Scan(&d.ID, &d.Name, &d.Prompt, &raw, &d.Sketch, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("design %q not found", name)
		}
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &d.Circuit); err != nil {
		return nil, fmt.Errorf("failed to decode circuit for %q: %w", name, err)
	}
	return &d, nil
}

// List returns every saved design, newest first. Circuits are decoded
// so callers can show component counts without a second query.
func (s *DesignStore) List() ([]*Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, prompt, circuit_json, sketch, created_at, updated_at
		FROM designs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	defer rows.Close()

	var designs []*Design
	for rows.Next() {
		var d Design
		var raw string
		if err := rows.Scan(&d.ID, &d.Name, &d.Prompt, &raw, &d.Sketch, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &d.Circuit); err != nil {
			logging.StoreDebug("skipping undecodable circuit for %q: %v", d.Name, err)
			continue
		}
		designs = append(designs, &d)
	}
	return designs, rows.Err()
}

// Delete removes a design and its suggestion history.
func (s *DesignStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM designs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("design %q not found", name)
	}
	if _, err := s.db.Exec(`DELETE FROM suggestions WHERE design_name = ?`, name); err != nil {
		logging.StoreDebug("failed to clear suggestions for %q: %v", name, err)
	}
	logging.Store("deleted design %q", name)
	return nil
}

// RecordSuggestion appends one assistant suggestion to a design's history.
func (s *DesignStore) RecordSuggestion(designName, suggestion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO suggestions (design_name, suggestion) VALUES (?, ?)`,
		designName, suggestion); err != nil {
		return fmt.Errorf("failed to record suggestion: %w", err)
	}
	return nil
}

// SuggestionHistory returns the most recent suggestions for a design.
func (s *DesignStore) SuggestionHistory(designName string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT suggestion FROM suggestions
		WHERE design_name = ? ORDER BY id DESC LIMIT ?`, designName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *DesignStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
