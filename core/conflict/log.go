package conflict

import "fmt"

// Reason tags why a candidate was rejected.
type Reason string

const (
	WithSelection       Reason = "conflicts-with-selection"
	WithFixedItem       Reason = "conflicts-with-fixed-item"
	WithExclusionWindow Reason = "conflicts-with-exclusion-window"
)

// Entry records one rejected candidate.
type Entry struct {
	Reason    Reason `json:"reason"`
	Candidate string `json:"candidate"`
	// Other is the label of the entity the candidate collided with. It is
	// empty for exclusion windows.
	Other string `json:"other,omitempty"`
	// Level is the slot group index at which the candidate was tried.
	Level   int    `json:"level"`
	Message string `json:"msg"`
}

// NewEntry builds an entry with its human readable message.
func NewEntry(reason Reason, level int, candidate, other string) Entry {
	var msg string
	switch reason {
	case WithSelection:
		msg = fmt.Sprintf("A schedule could not be generated because %s conflicts with %s", other, candidate)
	case WithFixedItem:
		msg = fmt.Sprintf("A schedule could not be generated because %s conflicts with '%s'", candidate, other)
	case WithExclusionWindow:
		msg = fmt.Sprintf("A schedule could not be generated because %s occurs during a time you don't want classes", candidate)
	default:
		msg = fmt.Sprintf("%s rejected: %s", candidate, reason)
	}
	return Entry{Reason: reason, Candidate: candidate, Other: other, Level: level, Message: msg}
}

// Log is an append-only trace of rejected candidates for one search. It is not
// safe for concurrent use. A nil *Log discards everything written to it.
type Log struct {
	entries []Entry
}

// NewLog returns an empty log.
func NewLog() *Log { return &Log{} }

// Append adds e to the log.
func (l *Log) Append(e Entry) {
	if l == nil {
		return
	}
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of all entries in the order they were written.
func (l *Log) Entries() []Entry {
	if l == nil || len(l.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByReason returns the entries carrying reason r.
func (l *Log) ByReason(r Reason) []Entry {
	if l == nil {
		return nil
	}
	var out []Entry
	for _, e := range l.entries {
		if e.Reason == r {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies entries per reason.
func (l *Log) Counts() map[Reason]int {
	counts := make(map[Reason]int, 3)
	if l == nil {
		return counts
	}
	for _, e := range l.entries {
		counts[e.Reason]++
	}
	return counts
}

// Messages returns the human readable message of every entry.
func (l *Log) Messages() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Message
	}
	return out
}
