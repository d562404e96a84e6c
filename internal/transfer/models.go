// Package transfer holds the domain model of the ownership hand-off protocol.
// A transfer walks one adoption listing from INITIATED through COMPLETED (or
// CANCELLED), with every step persisted externally so either party can resume
// from a fresh device or session.
package transfer

import "time"

// Status enumerates the protocol states. COMPLETED and CANCELLED are terminal.
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusSigned    Status = "SIGNED"
	StatusVerified  Status = "VERIFIED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo enforces the forward-only edge set. CANCELLED is reachable
// from any non-terminal state; everything else moves exactly one step.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusInitiated:
		return next == StatusSigned
	case StatusSigned:
		return next == StatusVerified
	case StatusVerified:
		return next == StatusCompleted
	}
	return false
}

// Step names the protocol step a resuming client should present next.
type Step string

const (
	StepSign      Step = "sign"
	StepVerify    Step = "verify"
	StepAccept    Step = "accept"
	StepCancelled Step = "cancelled"
)

// PrepareData is the immutable payload produced at initiation. The message is
// the exact string both parties sign; it is never rehashed or reformatted
// between construction and signing.
type PrepareData struct {
	Message         string `json:"message"`
	SigningData     string `json:"signingData"`
	TransactionHash string `json:"transactionHash"`
}

// Record is the single source of truth for one transfer, keyed by the
// adoption listing it belongs to. Only the coordinator mutates it.
type Record struct {
	SubjectID         string      `json:"subjectId"`
	RecordDID         string      `json:"recordDid"`
	PreviousGuardian  string      `json:"previousGuardian"`
	NewGuardian       string      `json:"newGuardian"`
	Status            Status      `json:"status"`
	Prepare           PrepareData `json:"prepareData"`
	Signature         string      `json:"signature,omitempty"`
	VerificationProof string      `json:"verificationProof,omitempty"`
	Similarity        *float64    `json:"similarity,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// NextStep maps the persisted status to the step a resuming client presents.
// COMPLETED has no next step; the coordinator rejects resuming it.
func (r Record) NextStep() Step {
	switch r.Status {
	case StatusInitiated:
		return StepSign
	case StatusSigned:
		return StepVerify
	case StatusVerified:
		return StepAccept
	case StatusCancelled:
		return StepCancelled
	}
	return ""
}
