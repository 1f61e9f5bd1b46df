package engine

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string     `json:"repository_type"`
	Repository     any        `json:"repository,omitempty"`
	Namespace      string     `json:"namespace"`
	MaxPasses      int        `json:"max_passes"`
	Bidirectional  bool       `json:"bidirectional_predicates"`
	Marker         string     `json:"marker"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	LastCommand    string     `json:"last_command,omitempty"`
	LastSummary    *Summary   `json:"last_summary,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	var repoState any
	if s.store != nil {
		repoType = "repository"
		if comp, ok := s.store.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
		if in, ok := s.store.(introspection.Introspectable); ok {
			repoState = in.State()
		}
	}

	return ServiceState{
		RepositoryType: repoType,
		Repository:     repoState,
		Namespace:      s.config.Namespace,
		MaxPasses:      s.config.Propagation.MaxPasses,
		Bidirectional:  s.config.Propagation.BidirectionalPredicates,
		Marker:         s.config.Promotion.Marker,
		LastRun:        s.lastRun,
		LastCommand:    s.lastKind,
		LastSummary:    s.lastSum,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
