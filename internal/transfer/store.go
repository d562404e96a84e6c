package transfer

import (
	"context"
	"time"
)

// Patch carries the fields a status transition writes alongside the new
// status. Empty fields are left untouched.
type Patch struct {
	Status            Status
	Signature         string
	VerificationProof string
	Similarity        *float64
}

// Store is the subject-keyed persistence layer for transfer records. Every
// mutation is an atomic compare-and-set on the current status; a mutation
// whose expectation no longer holds fails with sentinel.ErrInvalidState (or
// sentinel.ErrTerminal for cancels of finished transfers) without touching
// the record.
type Store interface {
	// Get returns the record for a subject, or sentinel.ErrNotFound.
	Get(ctx context.Context, subjectID string) (Record, error)

	// Create inserts a new record. A non-terminal record already present for
	// the subject fails with sentinel.ErrConflict; a terminal one is replaced.
	Create(ctx context.Context, record Record) error

	// UpdateStatus applies patch if and only if the stored status equals
	// expected. Returns the updated record.
	UpdateStatus(ctx context.Context, subjectID string, expected Status, patch Patch, now time.Time) (Record, error)

	// Cancel moves any non-terminal record to CANCELLED. A terminal record
	// fails with sentinel.ErrTerminal.
	Cancel(ctx context.Context, subjectID string, now time.Time) (Record, error)
}
