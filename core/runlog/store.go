package runlog

import (
	"context"
	"time"
)

// RunRecord summarises one search for later inspection.
type RunRecord struct {
	RunID        string         `json:"run_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Source       string         `json:"source"`
	Groups       int            `json:"groups"`
	Fixed        int            `json:"fixed"`
	Exclusions   int            `json:"exclusions"`
	Space        int64          `json:"space"`
	Combinations int            `json:"combinations"`
	Truncated    bool           `json:"truncated"`
	Error        string         `json:"error,omitempty"`
	DurationMS   float64        `json:"duration_ms"`
	Conflicts    map[string]int `json:"conflicts,omitempty"`
}

// RunQuery defines filters for retrieving records. Zero values match all.
type RunQuery struct {
	Start           time.Time
	End             time.Time
	Source          string
	MinCombinations int
	// Limit keeps the most recent records only.
	Limit int
}

// Match reports whether r satisfies the query filters, ignoring Limit.
func (q RunQuery) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	return r.Combinations >= q.MinCombinations
}

func (q RunQuery) trim(res []RunRecord) []RunRecord {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error              { return nil }
func (NopStore) Query(context.Context, RunQuery) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
