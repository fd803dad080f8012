package core

import "strings"

// FilterSpec is the transient set of narrowing criteria applied to the record
// set before display and aggregation. The zero value matches every record.
// It is never persisted.
type FilterSpec struct {
	Kind     Kind   // empty means both kinds
	Category string // case-insensitive exact match when set
	From     string // inclusive ISO date lower bound
	To       string // inclusive ISO date upper bound
	Search   string // case-insensitive substring over category and note
}

// IsZero reports whether the spec filters nothing.
func (f FilterSpec) IsZero() bool {
	return f == FilterSpec{}
}

// Matches reports whether a record satisfies all five filter clauses.
func (f FilterSpec) Matches(t Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.From != "" && t.Date < f.From {
		return false
	}
	if f.To != "" && t.Date > f.To {
		return false
	}
	if f.Search != "" {
		haystack := strings.ToLower(t.Category + " " + t.Note)
		if !strings.Contains(haystack, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

// Apply returns the order-preserving subsequence of records matching the spec.
// The input is never mutated.
func (f FilterSpec) Apply(records []Transaction) []Transaction {
	if f.IsZero() {
		out := make([]Transaction, len(records))
		copy(out, records)
		return out
	}
	out := make([]Transaction, 0, len(records))
	for _, t := range records {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
