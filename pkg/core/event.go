package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change in the ledger.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change of the stored ledger.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s at %s", e.Type, e.Path, time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339))
}
