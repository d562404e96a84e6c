package notify

import (
	"context"
	"sync"
)

// subscriberBuffer bounds per-session queues; a stalled websocket must not
// block the coordinator.
const subscriberBuffer = 16

// InMemoryBroadcaster delivers events within a single process. Used in unit
// tests and single-instance deployments without Redis.
type InMemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewInMemoryBroadcaster() *InMemoryBroadcaster {
	return &InMemoryBroadcaster{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Publish sends the event to every subscriber of the subject. Slow
// subscribers whose buffers are full miss the event; they will catch up on
// their next resume fetch.
func (b *InMemoryBroadcaster) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[event.SubjectID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a new session against the subject.
func (b *InMemoryBroadcaster) Subscribe(_ context.Context, subjectID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[subjectID] == nil {
		b.subs[subjectID] = make(map[chan Event]struct{})
	}
	b.subs[subjectID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[subjectID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, subjectID)
			}
		}
	}
	return ch, cancel, nil
}
