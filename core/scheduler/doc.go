// Package scheduler enumerates every conflict-free combination of options,
// one per slot group, given fixed commitments and excluded time windows.
//
// The search is a depth-first backtracking walk over the slot groups. Each
// candidate is checked against the options already chosen, then the fixed
// items, then the exclusion windows; the first failing check is written to the
// conflict log and the candidate is skipped. Results are produced lazily in
// lexicographic order of option indices.
package scheduler
