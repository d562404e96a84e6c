// Package postgres implements the audit store using the transactional outbox
// pattern. Events land in the outbox table and the Kafka sink publishes them
// downstream; Kafka is the source of truth for consumers.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "petledger/pkg/platform/audit"
	txcontext "petledger/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) executor(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON body stored alongside the indexed columns.
type outboxPayload struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Timestamp  string  `json:"timestamp"`
	SubjectID  string  `json:"subjectId"`
	RecordDID  string  `json:"recordDid,omitempty"`
	Action     string  `json:"action"`
	Actor      string  `json:"actor,omitempty"`
	Status     string  `json:"status,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	RequestID  string  `json:"requestId,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	payload, err := json.Marshal(outboxPayload{
		ID:         eventID.String(),
		Category:   string(category),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		SubjectID:  event.SubjectID,
		RecordDID:  event.RecordDID,
		Action:     event.Action,
		Actor:      event.Actor,
		Status:     event.Status,
		Similarity: event.Similarity,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	const query = `
		INSERT INTO audit_outbox (id, category, subject_id, action, actor, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.executor(ctx).ExecContext(ctx, query,
		eventID, string(category), event.SubjectID, event.Action, event.Actor, event.Timestamp, payload,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the trail for one transfer subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subjectID string) ([]audit.Event, error) {
	const query = `
		SELECT payload FROM audit_outbox
		WHERE subject_id = $1
		ORDER BY created_at ASC`
	rows, err := s.executor(ctx).QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		var p outboxPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, p.Timestamp)
		out = append(out, audit.Event{
			Category:   audit.EventCategory(p.Category),
			Timestamp:  ts,
			SubjectID:  p.SubjectID,
			RecordDID:  p.RecordDID,
			Action:     p.Action,
			Actor:      p.Actor,
			Status:     p.Status,
			Similarity: p.Similarity,
			Reason:     p.Reason,
			RequestID:  p.RequestID,
		})
	}
	return out, rows.Err()
}
