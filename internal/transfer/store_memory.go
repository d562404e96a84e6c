package transfer

import (
	"context"
	"sync"
	"time"

	"petledger/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map. Used by unit tests and development
// runs without Redis; the mutex gives it the same compare-and-set semantics
// as the Redis store.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, subjectID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[subjectID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Create(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.SubjectID]; ok && !existing.Status.IsTerminal() {
		return sentinel.ErrConflict
	}
	s.records[record.SubjectID] = record
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, subjectID string, expected Status, patch Patch, now time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[subjectID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if record.Status != expected {
		return Record{}, sentinel.ErrInvalidState
	}

	record.Status = patch.Status
	if patch.Signature != "" {
		record.Signature = patch.Signature
	}
	if patch.VerificationProof != "" {
		record.VerificationProof = patch.VerificationProof
	}
	if patch.Similarity != nil {
		record.Similarity = patch.Similarity
	}
	record.UpdatedAt = now

	s.records[subjectID] = record
	return record, nil
}

func (s *InMemoryStore) Cancel(_ context.Context, subjectID string, now time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[subjectID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if record.Status.IsTerminal() {
		return Record{}, sentinel.ErrTerminal
	}

	record.Status = StatusCancelled
	record.UpdatedAt = now
	s.records[subjectID] = record
	return record, nil
}
