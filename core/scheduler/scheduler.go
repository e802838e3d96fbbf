package scheduler

import (
	"iter"
	"math"

	"github.com/RixhersAjazi/schedulemaker/core/conflict"
	"github.com/RixhersAjazi/schedulemaker/core/model"
)

// Enumerate returns the valid combinations of groups as a lazy sequence.
// Rejected candidates are recorded in log, which may be nil. The walk stops as
// soon as the consumer stops pulling. With no groups the sequence holds a
// single empty combination; a group without options yields nothing.
func Enumerate(groups []model.SlotGroup, fixed []model.FixedItem, exclusions []model.ExclusionWindow, log *conflict.Log) iter.Seq[model.Combination] {
	return func(yield func(model.Combination) bool) {
		if len(groups) == 0 {
			yield(model.Combination{})
			return
		}
		s := &search{groups: groups, fixed: fixed, exclusions: exclusions, log: log, yield: yield}
		s.walk(0, nil)
	}
}

// All drains Enumerate and returns the combinations with a fresh conflict log.
func All(groups []model.SlotGroup, fixed []model.FixedItem, exclusions []model.ExclusionWindow) ([]model.Combination, *conflict.Log) {
	log := conflict.NewLog()
	var out []model.Combination
	for c := range Enumerate(groups, fixed, exclusions, log) {
		out = append(out, c)
	}
	return out, log
}

// Count returns the number of valid combinations without retaining them.
func Count(groups []model.SlotGroup, fixed []model.FixedItem, exclusions []model.ExclusionWindow) int {
	n := 0
	for range Enumerate(groups, fixed, exclusions, nil) {
		n++
	}
	return n
}

// SearchSpace returns the size of the unpruned cross product of groups,
// saturating at math.MaxInt64.
func SearchSpace(groups []model.SlotGroup) int64 {
	var total int64 = 1
	for _, g := range groups {
		n := int64(len(g.Options))
		if n == 0 {
			return 0
		}
		if total > math.MaxInt64/n {
			return math.MaxInt64
		}
		total *= n
	}
	return total
}

type search struct {
	groups     []model.SlotGroup
	fixed      []model.FixedItem
	exclusions []model.ExclusionWindow
	log        *conflict.Log
	yield      func(model.Combination) bool
}

// walk tries every option of groups[level] on top of chain. It returns false
// once the consumer has stopped.
func (s *search) walk(level int, chain model.Combination) bool {
	last := level == len(s.groups)-1
	for _, c := range s.groups[level].Options {
		if !s.admissible(level, chain, c) {
			continue
		}
		// The three-index slice forces a fresh backing array, so siblings
		// never observe each other's choices.
		next := append(chain[:len(chain):len(chain)], c)
		if last {
			if !s.yield(next) {
				return false
			}
			continue
		}
		if !s.walk(level+1, next) {
			return false
		}
	}
	return true
}

func (s *search) admissible(level int, chain model.Combination, c model.Option) bool {
	for _, placed := range chain {
		if model.OverlapsAny(placed, c) {
			s.log.Append(conflict.NewEntry(conflict.WithSelection, level, c.Label(), placed.Label()))
			return false
		}
	}
	for _, f := range s.fixed {
		if model.OverlapsAny(f, c) {
			s.log.Append(conflict.NewEntry(conflict.WithFixedItem, level, c.Label(), f.Label()))
			return false
		}
	}
	for _, e := range s.exclusions {
		if model.OverlapsAny(e, c) {
			s.log.Append(conflict.NewEntry(conflict.WithExclusionWindow, level, c.Label(), ""))
			return false
		}
	}
	return true
}
