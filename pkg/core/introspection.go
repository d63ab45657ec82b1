package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Notes             int            `json:"notes"`
	ByStatus          map[string]int `json:"by_status"`
	Dirty             bool           `json:"dirty"`
	ReadOnly          bool           `json:"read_only"`
	WarningWindowDays int            `json:"warning_window_days"`
	DayCountBasis     int64          `json:"day_count_basis"`
	RepositoryType    string         `json:"repository_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, n := range s.notes {
		byStatus[n.Status.String()]++
	}

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		// Try to get component type if repository implements introspection.Component
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	return ServiceState{
		Notes:             len(s.notes),
		ByStatus:          byStatus,
		Dirty:             s.dirty,
		ReadOnly:          s.readOnly,
		WarningWindowDays: s.classifier.WarningWindowDays,
		DayCountBasis:     s.calc.basis(),
		RepositoryType:    repoType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "note-store"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
