// Package memory provides the in-memory audit store used by unit tests and
// development runs without PostgreSQL.
package memory

import (
	"context"
	"sync"

	audit "petledger/pkg/platform/audit"
)

type Store struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListBySubject(_ context.Context, subjectID string) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.Event
	for _, e := range s.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}
