// Package notify fans transfer transition events out to connected sessions.
//
// Events are advisory cues only: delivery is at-least-once and not ordered
// relative to store writes, so consumers must re-fetch canonical state via
// the resume endpoint rather than trusting event payloads.
package notify

import "context"

// EventType names the real-time events emitted by the coordinator.
type EventType string

const (
	EventTransferInitiated EventType = "transferInitiated"
	EventTransferUpdated   EventType = "transferUpdated"
	EventTransferCancelled EventType = "transferCancelled"
)

// Event is the advisory payload pushed to sessions watching a transfer.
type Event struct {
	SubjectID  string    `json:"subjectId"`
	Type       EventType `json:"type"`
	Status     string    `json:"status"`
	Similarity *float64  `json:"similarity,omitempty"`
}

// Broadcaster is a subject-scoped publish/subscribe channel. Implementations
// must not be treated as a source of truth for transfer state.
type Broadcaster interface {
	// Publish delivers the event to all current subscribers of the subject.
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a stream of events for one subject and a cancel
	// function that releases the subscription.
	Subscribe(ctx context.Context, subjectID string) (<-chan Event, func(), error)
}
