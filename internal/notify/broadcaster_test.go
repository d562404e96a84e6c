package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BroadcasterSuite struct {
	suite.Suite
	b *InMemoryBroadcaster
}

func (s *BroadcasterSuite) SetupTest() {
	s.b = NewInMemoryBroadcaster()
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterSuite))
}

func (s *BroadcasterSuite) receive(ch <-chan Event) Event {
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for event")
		return Event{}
	}
}

func (s *BroadcasterSuite) TestPublishReachesAllSubjectSubscribers() {
	ctx := context.Background()
	ch1, cancel1, err := s.b.Subscribe(ctx, "42")
	s.Require().NoError(err)
	defer cancel1()
	ch2, cancel2, err := s.b.Subscribe(ctx, "42")
	s.Require().NoError(err)
	defer cancel2()

	sim := 72.0
	event := Event{SubjectID: "42", Type: EventTransferUpdated, Status: "VERIFIED", Similarity: &sim}
	s.Require().NoError(s.b.Publish(ctx, event))

	s.Equal(event, s.receive(ch1))
	s.Equal(event, s.receive(ch2))
}

func (s *BroadcasterSuite) TestSubjectsAreIsolated() {
	ctx := context.Background()
	other, cancel, err := s.b.Subscribe(ctx, "7")
	s.Require().NoError(err)
	defer cancel()

	s.Require().NoError(s.b.Publish(ctx, Event{SubjectID: "42", Type: EventTransferInitiated, Status: "INITIATED"}))

	select {
	case e := <-other:
		s.Failf("unexpected event", "%+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *BroadcasterSuite) TestCancelClosesStream() {
	ctx := context.Background()
	ch, cancel, err := s.b.Subscribe(ctx, "42")
	s.Require().NoError(err)

	cancel()
	_, open := <-ch
	s.False(open)

	// Publishing after cancel must not panic or block.
	s.Require().NoError(s.b.Publish(ctx, Event{SubjectID: "42", Type: EventTransferCancelled, Status: "CANCELLED"}))
}

func (s *BroadcasterSuite) TestSlowSubscriberDoesNotBlockPublish() {
	ctx := context.Background()
	_, cancel, err := s.b.Subscribe(ctx, "42")
	s.Require().NoError(err)
	defer cancel()

	// Fill well past the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = s.b.Publish(ctx, Event{SubjectID: "42", Type: EventTransferUpdated, Status: "SIGNED"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("publish blocked on slow subscriber")
	}
}
