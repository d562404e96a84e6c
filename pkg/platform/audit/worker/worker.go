// Package worker drains the audit inbox into durable storage and the Kafka
// sink. It runs as a background goroutine next to the HTTP server.
package worker

import (
	"context"
	"log/slog"

	audit "petledger/pkg/platform/audit"
)

// Sink receives events after they are persisted. Optional; nil disables it.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from a channel and persists them. Store
// failures are logged and skipped; losing one operations event is preferable
// to wedging the pipeline behind a dead database.
type Worker struct {
	store  audit.Store
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run processes the inbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"subject_id", event.SubjectID,
					"error", err,
				)
				continue
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.WarnContext(ctx, "audit sink publish failed",
						"action", event.Action,
						"subject_id", event.SubjectID,
						"error", err,
					)
				}
			}
		}
	}
}
