package model

import "fmt"

// TimeWindow is a weekly recurring block of time on a single day.
type TimeWindow struct {
	Day   Day     `json:"day" yaml:"day"`
	Start Minutes `json:"start" yaml:"start"`
	End   Minutes `json:"end" yaml:"end"`
}

// Valid reports whether the window is well formed. The search does not reject
// malformed windows; an empty or inverted window never conflicts.
func (w TimeWindow) Valid() bool {
	return w.Day.Valid() && w.Start >= 0 && w.Start < w.End && w.End <= MinutesPerDay
}

// Duration returns the length of the window in minutes, or 0 when malformed.
func (w TimeWindow) Duration() Minutes {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s-%s", w.Day, w.Start.Clock(), w.End.Clock())
}

// Overlaps reports whether candidate window b conflicts with placed window a.
// Windows on different days, and empty or inverted windows, never conflict.
// Otherwise b conflicts when any of these holds:
//
//	a.start <= b.start < a.end      b starts inside a
//	a.start <  b.end   <= a.end     b ends inside a
//	b.start <= a.start && b.end >= a.end   b engulfs a
//
// Windows that only share a boundary (a.end == b.start) do not conflict in
// either argument order.
func Overlaps(a, b TimeWindow) bool {
	if a.Day != b.Day || a.Start >= a.End || b.Start >= b.End {
		return false
	}
	return (a.Start <= b.Start && b.Start < a.End) ||
		(a.Start < b.End && b.End <= a.End) ||
		(b.Start <= a.Start && b.End >= a.End)
}

// OverlapsAny reports whether any window of other conflicts with any window of
// entity, with entity's windows on the left of Overlaps. Entities without
// windows never conflict.
func OverlapsAny(entity, other TimedEntity) bool {
	aw := entity.Windows()
	bw := other.Windows()
	if len(aw) == 0 || len(bw) == 0 {
		return false
	}
	for _, a := range aw {
		for _, b := range bw {
			if Overlaps(a, b) {
				return true
			}
		}
	}
	return false
}
