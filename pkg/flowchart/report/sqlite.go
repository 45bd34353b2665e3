package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists reports to a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the report database at path.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS takt_reports (
			id TEXT PRIMARY KEY,
			machine TEXT NOT NULL,
			unit TEXT NOT NULL,
			behavior TEXT NOT NULL,
			seconds REAL NOT NULL,
			nodes INTEGER NOT NULL,
			undated TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_takt_reports_behavior
		ON takt_reports(machine, unit, behavior, created_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	prepare(r)
	undated, err := json.Marshal(nonNil(r.Undated))
	if err != nil {
		return fmt.Errorf("encode undated actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO takt_reports (id, machine, unit, behavior, seconds, nodes, undated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			machine = excluded.machine,
			unit = excluded.unit,
			behavior = excluded.behavior,
			seconds = excluded.seconds,
			nodes = excluded.nodes,
			undated = excluded.undated,
			created_at = excluded.created_at
	`, r.ID, r.Machine, r.Unit, r.Behavior, r.Seconds, r.Nodes, string(undated),
		r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectReports = `
	SELECT id, machine, unit, behavior, seconds, nodes, undated, created_at
	FROM takt_reports`

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Report{}, ErrStoreClosed
	}

	r, err := scanReport(s.db.QueryRowContext(ctx, selectReports+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("load report: %w", err)
	}
	return r, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var where []string
	var args []any
	for _, c := range []struct{ col, val string }{
		{"machine", f.Machine},
		{"unit", f.Unit},
		{"behavior", f.Behavior},
	} {
		if c.val != "" {
			where = append(where, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	query := selectReports
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM takt_reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (Report, error) {
	var r Report
	var undated, created string
	if err := row.Scan(&r.ID, &r.Machine, &r.Unit, &r.Behavior, &r.Seconds, &r.Nodes, &undated, &created); err != nil {
		return Report{}, err
	}
	if err := json.Unmarshal([]byte(undated), &r.Undated); err != nil {
		return Report{}, fmt.Errorf("decode undated actions: %w", err)
	}
	if len(r.Undated) == 0 {
		r.Undated = nil
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Report{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
