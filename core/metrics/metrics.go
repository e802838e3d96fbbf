package metrics

import (
	"time"

	"github.com/RixhersAjazi/schedulemaker/core/conflict"
)

// Outcome classifies how a search ended.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeTruncated Outcome = "truncated"
	OutcomeCancelled Outcome = "cancelled"
)

// SearchRun summarises one enumerator invocation.
type SearchRun struct {
	RunID        string
	Source       string
	Groups       int
	Space        int64
	Combinations int
	Conflicts    map[conflict.Reason]int
	Outcome      Outcome
	Duration     time.Duration
	Time         time.Time
}

// MetricsSink records search runs for observability purposes.
type MetricsSink interface {
	RecordSearch(run SearchRun) error
}

// RejectedRequest is a request refused before reaching the enumerator.
type RejectedRequest struct {
	Source string
	Reason string
	Time   time.Time
}

// RejectionRecorder is implemented by sinks able to count rejected requests.
type RejectionRecorder interface {
	RecordRejection(ev RejectedRequest) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSearch(SearchRun) error          { return nil }
func (NopSink) RecordRejection(RejectedRequest) error { return nil }
