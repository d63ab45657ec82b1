package core

import "time"

// DefaultWarningWindowDays is how many days ahead of maturity a note is flagged.
const DefaultWarningWindowDays = 30

// Classification is the urgency of a note relative to a given day.
type Classification int

const (
	Normal Classification = iota
	ApproachingMaturity
	PastMaturity
)

func (c Classification) String() string {
	switch c {
	case ApproachingMaturity:
		return "approaching_maturity"
	case PastMaturity:
		return "past_maturity"
	default:
		return "normal"
	}
}

// Alert reports whether the classification should be highlighted.
func (c Classification) Alert() bool {
	return c != Normal
}

// Classifier derives the urgency of a note. It is UI-agnostic.
type Classifier struct {
	// WarningWindowDays is the inclusive look-ahead for ApproachingMaturity.
	WarningWindowDays int
}

// NewClassifier returns a classifier with the given window. Negative windows fall back to the default.
func NewClassifier(windowDays int) Classifier {
	if windowDays < 0 {
		windowDays = DefaultWarningWindowDays
	}
	return Classifier{WarningWindowDays: windowDays}
}

// Classify returns PastMaturity, ApproachingMaturity or Normal.
// Only Active notes are ever flagged.
func (c Classifier) Classify(n Note, today time.Time) Classification {
	if n.Status != StatusActive {
		return Normal
	}
	days := DaysToMaturity(n, today)
	switch {
	case days < 0:
		return PastMaturity
	case days <= c.WarningWindowDays:
		return ApproachingMaturity
	default:
		return Normal
	}
}
