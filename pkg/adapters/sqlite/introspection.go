package sqlite

import (
	"slices"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path            string     `json:"path"`
	ReadOnly        bool       `json:"read_only"`
	Missing         bool       `json:"missing,omitempty"`
	OpenConnections int        `json:"open_connections"`
	Migrations      []string   `json:"migrations_applied,omitempty"`
	LastSave        *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := StoreState{
		Path:       s.config.Path,
		ReadOnly:   s.config.ReadOnly,
		Missing:    s.missing,
		Migrations: slices.Clone(s.applied),
		LastSave:   s.lastSave,
	}
	if s.sqlDB != nil {
		state.OpenConnections = s.sqlDB.Stats().OpenConnections
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-ledger"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
