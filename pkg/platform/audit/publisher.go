package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "petledger_audit_events_dropped_total",
	Help: "Audit events dropped because the inbox was full",
})

// Publisher accepts events from domain logic and hands them to the worker via
// a bounded inbox. Emission is fire-and-forget: a full inbox drops the event
// and bumps a counter rather than blocking a transfer operation.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher creates a publisher with the given inbox capacity.
func NewPublisher(capacity int, logger *slog.Logger) *Publisher {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Publisher{
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Emit enqueues an event for persistence. Never blocks.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}

	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"subject_id", event.SubjectID,
		)
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
