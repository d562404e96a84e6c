package audit

import "context"

// Store persists audit events. Implementations: in-memory for tests, a
// PostgreSQL outbox for production (Kafka is the downstream source of truth).
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
