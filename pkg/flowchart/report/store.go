// Package report persists takt-time results so design iterations can be
// compared over time.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists reports.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores r. A missing ID or CreatedAt is filled in on r.
	// Saving an existing ID overwrites it.
	Save(ctx context.Context, r *Report) error

	// Load retrieves a report by ID.
	// Returns ErrNotFound if it doesn't exist.
	Load(ctx context.Context, id string) (Report, error)

	// List returns the reports matching f, newest first.
	// Returns an empty slice (not error) when nothing matches.
	List(ctx context.Context, f Filter) ([]Report, error)

	// Delete removes a report.
	// Returns nil if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Report is one takt-time result.
type Report struct {
	ID        string
	Machine   string
	Unit      string
	Behavior  string
	Seconds   float64
	Nodes     int
	Undated   []string
	CreatedAt time.Time
}

// Filter narrows List. Empty fields match everything; Limit 0 means no limit.
type Filter struct {
	Machine  string
	Unit     string
	Behavior string
	Limit    int
}

func (f Filter) matches(r Report) bool {
	return (f.Machine == "" || f.Machine == r.Machine) &&
		(f.Unit == "" || f.Unit == r.Unit) &&
		(f.Behavior == "" || f.Behavior == r.Behavior)
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a report doesn't exist.
	ErrNotFound = errors.New("report not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("report store closed")
)

func prepare(r *Report) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// Previous returns the newest report for the same machine, unit and
// behavior that was created before r, and false if there is none.
func Previous(ctx context.Context, s Store, r Report) (Report, bool, error) {
	reports, err := s.List(ctx, Filter{Machine: r.Machine, Unit: r.Unit, Behavior: r.Behavior})
	if err != nil {
		return Report{}, false, err
	}
	for _, p := range reports {
		if p.ID != r.ID && p.CreatedAt.Before(r.CreatedAt) {
			return p, true, nil
		}
	}
	return Report{}, false, nil
}
