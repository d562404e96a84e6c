package transfer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petledger/internal/transfer"
	"petledger/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *transfer.InMemoryStore
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = transfer.NewInMemoryStore()
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) seed(status transfer.Status) transfer.Record {
	record := transfer.Record{
		SubjectID:        "42",
		RecordDID:        "did:pet:abc",
		PreviousGuardian: "0xaaa",
		NewGuardian:      "0xbbb",
		Status:           status,
		CreatedAt:        s.now,
		UpdatedAt:        s.now,
	}
	s.Require().NoError(s.store.Create(context.Background(), record))
	return record
}

func (s *MemoryStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(context.Background(), "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestCreateRejectsActiveDuplicate() {
	s.seed(transfer.StatusInitiated)

	err := s.store.Create(context.Background(), transfer.Record{SubjectID: "42", Status: transfer.StatusInitiated})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestCreateReplacesTerminalRecord() {
	s.seed(transfer.StatusCancelled)

	err := s.store.Create(context.Background(), transfer.Record{SubjectID: "42", Status: transfer.StatusInitiated})
	s.NoError(err)

	record, err := s.store.Get(context.Background(), "42")
	s.Require().NoError(err)
	s.Equal(transfer.StatusInitiated, record.Status)
}

func (s *MemoryStoreSuite) TestUpdateStatusAppliesPatch() {
	s.seed(transfer.StatusInitiated)

	updated, err := s.store.UpdateStatus(context.Background(), "42", transfer.StatusInitiated, transfer.Patch{
		Status:    transfer.StatusSigned,
		Signature: "0xsig",
	}, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(transfer.StatusSigned, updated.Status)
	s.Equal("0xsig", updated.Signature)
	s.Equal(s.now.Add(time.Minute), updated.UpdatedAt)
}

func (s *MemoryStoreSuite) TestUpdateStatusRejectsStaleExpectation() {
	s.seed(transfer.StatusSigned)

	_, err := s.store.UpdateStatus(context.Background(), "42", transfer.StatusInitiated, transfer.Patch{
		Status: transfer.StatusSigned,
	}, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	record, err := s.store.Get(context.Background(), "42")
	s.Require().NoError(err)
	s.Equal(transfer.StatusSigned, record.Status)
}

func (s *MemoryStoreSuite) TestCancelRejectsTerminal() {
	s.seed(transfer.StatusCompleted)

	_, err := s.store.Cancel(context.Background(), "42", s.now)
	s.ErrorIs(err, sentinel.ErrTerminal)
}

func (s *MemoryStoreSuite) TestConcurrentCancelAndUpdateOneWins() {
	s.seed(transfer.StatusSigned)

	var wg sync.WaitGroup
	var cancelErr, updateErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = s.store.Cancel(context.Background(), "42", s.now)
	}()
	go func() {
		defer wg.Done()
		similarity := 72.0
		_, updateErr = s.store.UpdateStatus(context.Background(), "42", transfer.StatusSigned, transfer.Patch{
			Status:     transfer.StatusVerified,
			Similarity: &similarity,
		}, s.now)
	}()
	wg.Wait()

	// Whichever compare-and-set lands first wins. Cancel succeeds from either
	// SIGNED or VERIFIED, so the record always ends CANCELLED; the update
	// fails only when the cancel got there first.
	record, err := s.store.Get(context.Background(), "42")
	s.Require().NoError(err)
	s.Equal(transfer.StatusCancelled, record.Status)
	s.NoError(cancelErr)
	if updateErr != nil {
		s.ErrorIs(updateErr, sentinel.ErrInvalidState)
	}
}
