package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	ID              string       `json:"id"`
	EventBufferSize int          `json:"event_buffer_size"`
	RepositoryType  string       `json:"repository_type"`
	PersistState    PersistState `json:"persist_state"`
	Subscribers     int          `json:"subscribers"`
	Lines           int          `json:"lines"`
	Notes           int          `json:"notes"`
	Running         bool         `json:"running"`
	AudioAttached   bool         `json:"audio_attached"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	notes := 0
	for _, l := range s.doc.lines {
		notes += l.NoteCount()
	}

	return ServiceState{
		ID:              s.id,
		EventBufferSize: s.eventBufferSize,
		RepositoryType:  repoType,
		PersistState:    s.state,
		Subscribers:     s.broker.count(),
		Lines:           len(s.doc.lines),
		Notes:           notes,
		Running:         s.clock.Running(),
		AudioAttached:   s.audio != nil,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
