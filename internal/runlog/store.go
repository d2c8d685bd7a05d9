// Package runlog persists validation verdicts so pipeline runs can be
// audited and diffed after the fact. The log is append-only.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"specgate/internal/domain"
)

// Store writes run records to a SQL database. Findings are stored as one JSON
// blob per run: they are read back whole for display, never queried by field.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db and initializes the schema.
// Returns an error if db is nil or the migration fails.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("runlog migrate: %w", err)
	}
	return s, nil
}

// migrate creates the runs table if it doesn't exist.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			passed INTEGER NOT NULL,
			findings TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// Record appends one verdict. A zero CreatedAt is filled with the current time.
func (s *Store) Record(ctx context.Context, rec domain.RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	findings, err := json.Marshal(rec.Findings)
	if err != nil {
		return fmt.Errorf("runlog record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (namespace, name, passed, findings, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Namespace, rec.Name, rec.Passed, string(findings), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("runlog record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, namespace, name, passed, findings, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog recent: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var findings string
		if err := rows.Scan(&rec.ID, &rec.Namespace, &rec.Name, &rec.Passed, &findings, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("runlog scan: %w", err)
		}
		if err := json.Unmarshal([]byte(findings), &rec.Findings); err != nil {
			return nil, fmt.Errorf("runlog decode findings: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog recent: %w", err)
	}
	return out, nil
}

// Ensure Store implements domain.RunRecorder.
var _ domain.RunRecorder = (*Store)(nil)
