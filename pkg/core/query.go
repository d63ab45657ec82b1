package core

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate selects notes.
type Predicate func(Note) bool

// FindNotes returns the notes matching pred in insertion order.
// The sequence iterates over a snapshot taken now: it is lazy, can be
// ranged over any number of times and never observes later mutations.
// A nil predicate matches every note.
func (s *Service) FindNotes(pred Predicate) iter.Seq[Note] {
	s.mu.RLock()
	snapshot := slices.Clone(s.notes)
	s.mu.RUnlock()

	return func(yield func(Note) bool) {
		for _, n := range snapshot {
			if pred != nil && !pred(n) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// ByStatus matches notes in any of the given statuses.
func ByStatus(statuses ...Status) Predicate {
	return func(n Note) bool {
		return slices.Contains(statuses, n.Status)
	}
}

// ByClient matches the client name case-insensitively.
func ByClient(first, last string) Predicate {
	return func(n Note) bool {
		return strings.EqualFold(n.ClientFirstName, strings.TrimSpace(first)) &&
			strings.EqualFold(n.ClientLastName, strings.TrimSpace(last))
	}
}

// ProjectContains matches project names containing query, ignoring case.
func ProjectContains(query string) Predicate {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(n Note) bool {
		return strings.Contains(strings.ToLower(n.ProjectName), q)
	}
}

// ProjectMatches matches project names against a glob such as "Harbor*" or "{North,South} Tower".
// Matching ignores case; an invalid pattern matches nothing.
func ProjectMatches(pattern string) Predicate {
	pattern = strings.ToLower(pattern)
	return func(n Note) bool {
		ok, err := doublestar.Match(pattern, strings.ToLower(n.ProjectName))
		return err == nil && ok
	}
}

// MaturingBy matches Active notes that mature on or before the given day.
func MaturingBy(day time.Time) Predicate {
	day = Day(day)
	return func(n Note) bool {
		return n.Status == StatusActive && !n.MaturityDate.After(day)
	}
}

// Matured matches Active notes whose maturity date is strictly before asOf,
// the selection used by batch rollover.
func Matured(asOf time.Time) Predicate {
	asOf = Day(asOf)
	return func(n Note) bool {
		return n.Status == StatusActive && n.MaturityDate.Before(asOf)
	}
}

// And matches notes accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(n Note) bool {
		for _, p := range preds {
			if p != nil && !p(n) {
				return false
			}
		}
		return true
	}
}
