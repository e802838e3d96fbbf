package events

import (
	"time"

	"github.com/RixhersAjazi/schedulemaker/core/conflict"
)

// Event is anything published on the service bus.
type Event interface{ eventName() string }

// SearchStarted is published before enumeration starts.
type SearchStarted struct {
	RunID  string
	Source string
	Groups int
	// Space is the size of the unpruned search space.
	Space int64
	At    time.Time
}

// SearchCompleted is published once a search stops producing schedules.
type SearchCompleted struct {
	RunID        string
	Source       string
	Groups       int
	Space        int64
	Combinations int
	Conflicts    map[conflict.Reason]int
	Truncated    bool
	Duration     time.Duration
	// Err is set when the search was abandoned, e.g. on context cancellation.
	Err error
}

// RequestRejected is published when a request fails validation.
type RequestRejected struct {
	Source string
	Reason string
	Err    error
}

func (SearchStarted) eventName() string   { return "search_started" }
func (SearchCompleted) eventName() string { return "search_completed" }
func (RequestRejected) eventName() string { return "request_rejected" }

// Name returns a stable identifier for e, used as a metric label.
func Name(e Event) string { return e.eventName() }
