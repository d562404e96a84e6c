// Package audit captures the protocol's regulatory trail. Every transfer
// transition emits one event; compliance-category events document the change
// of guardianship itself, operations-category events document the verification
// machinery around it.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: who held and
	// who received control of an animal record. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the coordinator to capture key protocol actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	SubjectID  string  // adoption listing the transfer belongs to
	RecordDID  string  // ledger identifier of the animal
	Action     string  // the action taken (e.g. "transfer_initiated")
	Actor      string  // wallet address that performed the action
	Status     string  // transfer status after the action
	Similarity float64 // biometric score, for verification events
	Reason     string  // failure reason, for rejection events
	RequestID  string  // correlation ID from HTTP request context
}

// AuditEvent names the actions the coordinator emits.
type AuditEvent string

const (
	EventTransferInitiated AuditEvent = "transfer_initiated"
	EventTransferSigned    AuditEvent = "transfer_signed"
	EventBiometricVerified AuditEvent = "biometric_verified"
	EventBiometricRejected AuditEvent = "biometric_rejected"
	EventTransferCompleted AuditEvent = "transfer_completed"
	EventTransferCancelled AuditEvent = "transfer_cancelled"
)

// eventCategories maps each audit event to its category. Guardianship changes
// are compliance; the verification machinery is operations.
var eventCategories = map[AuditEvent]EventCategory{
	EventTransferInitiated: CategoryCompliance,
	EventTransferSigned:    CategoryCompliance,
	EventTransferCompleted: CategoryCompliance,
	EventTransferCancelled: CategoryCompliance,

	EventBiometricVerified: CategoryOperations,
	EventBiometricRejected: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
