// Package service implements the transfer coordinator: the state machine that
// threads the ledger transaction, the two wallet signatures, and the
// biometric comparison into one atomic hand-off. All state lives in the
// store; the coordinator holds nothing between calls, which is what lets
// either party resume from any device.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"petledger/internal/biometric"
	"petledger/internal/ledger"
	"petledger/internal/notify"
	"petledger/internal/transfer"
	dErrors "petledger/pkg/domain-errors"
	audit "petledger/pkg/platform/audit"
	"petledger/pkg/platform/sentinel"
	"petledger/pkg/requestcontext"
)

var operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "petledger_transfer_operations_total",
	Help: "Transfer coordinator operations by outcome",
}, []string{"operation", "outcome"})

// Ledger is the on-chain surface the coordinator needs: a controller read
// and a blocking confirmation wait.
type Ledger interface {
	GetController(ctx context.Context, recordDID string) (string, error)
	WaitForConfirmation(ctx context.Context, txHash string, timeout time.Duration) (ledger.Confirmation, error)
}

// Oracle compares an uploaded image against the record's registered template.
type Oracle interface {
	Compare(ctx context.Context, recordDID, imageKey string) (biometric.Result, error)
}

// Auditor receives protocol events for the regulatory trail.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Coordinator validates preconditions, advances transfer state through the
// store's compare-and-set primitives, and triggers notifications. It is the
// only component allowed to mutate transfer records.
type Coordinator struct {
	store          transfer.Store
	ledger         Ledger
	oracle         Oracle
	broadcaster    notify.Broadcaster
	auditor        Auditor
	builder        *transfer.MessageBuilder
	logger         *slog.Logger
	tracer         trace.Tracer
	confirmTimeout time.Duration
	now            func() time.Time
}

type Option func(*Coordinator)

// WithClock overrides the time source. Tests use this for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithConfirmationTimeout bounds the blocking wait in Accept.
func WithConfirmationTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.confirmTimeout = d }
}

func NewCoordinator(store transfer.Store, lg Ledger, oracle Oracle, broadcaster notify.Broadcaster, auditor Auditor, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:          store,
		ledger:         lg,
		oracle:         oracle,
		broadcaster:    broadcaster,
		auditor:        auditor,
		builder:        transfer.NewMessageBuilder(),
		logger:         logger,
		tracer:         otel.Tracer("petledger/transfer"),
		confirmTimeout: 2 * time.Minute,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// InitiateParams is supplied by the current guardian. The transaction hash is
// the controller-change transaction they already broadcast; it is confirmed
// at accept time, not here, to avoid blocking initiation on mining latency.
type InitiateParams struct {
	SubjectID       string
	RecordDID       string
	NewGuardian     string
	TransactionHash string
	Attributes      transfer.Attributes
}

// AcceptResult reports the confirmed controller-change transaction.
type AcceptResult struct {
	TxHash      string
	BlockNumber uint64
	Record      transfer.Record
}

// ResumeView tells a resuming client which step to present.
type ResumeView struct {
	Record transfer.Record
	Step   transfer.Step
}

// Initiate starts a transfer. The caller must be the on-chain controller of
// the record right now; a stale or already-transferred record fails here
// rather than at the end of the flow.
func (c *Coordinator) Initiate(ctx context.Context, caller string, p InitiateParams) (transfer.Record, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.Initiate", trace.WithAttributes(
		attribute.String("transfer.subject_id", p.SubjectID),
	))
	defer span.End()

	if p.SubjectID == "" || p.RecordDID == "" || p.NewGuardian == "" || p.TransactionHash == "" {
		return c.fail("initiate", transfer.Record{}, dErrors.New(dErrors.CodeValidation, "subjectId, recordDid, newGuardianAddress and transactionHash are required"))
	}

	controller, err := c.ledger.GetController(ctx, p.RecordDID)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			return c.fail("initiate", transfer.Record{}, dErrors.New(dErrors.CodeNotFound, "record is not registered on the ledger"))
		}
		return c.fail("initiate", transfer.Record{}, dErrors.Wrap(err, dErrors.CodeChain, "reading on-chain controller failed"))
	}
	if !transfer.SameAddress(controller, caller) {
		return c.fail("initiate", transfer.Record{}, dErrors.New(dErrors.CodeUnauthorized, "caller is not the current controller of the record"))
	}

	message := c.builder.Build(p.RecordDID, caller, p.NewGuardian, p.Attributes)
	now := c.now()
	record := transfer.Record{
		SubjectID:        p.SubjectID,
		RecordDID:        p.RecordDID,
		PreviousGuardian: transfer.NormalizeAddress(caller),
		NewGuardian:      transfer.NormalizeAddress(p.NewGuardian),
		Status:           transfer.StatusInitiated,
		Prepare: transfer.PrepareData{
			Message:         message,
			SigningData:     c.builder.SigningData(message),
			TransactionHash: p.TransactionHash,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return c.fail("initiate", transfer.Record{}, dErrors.New(dErrors.CodeInvalidState, "an active transfer already exists for this listing"))
		}
		return c.fail("initiate", transfer.Record{}, err)
	}

	c.broadcast(ctx, record, notify.EventTransferInitiated, nil)
	c.audit(ctx, record, audit.EventTransferInitiated, caller, "")
	operationsTotal.WithLabelValues("initiate", "success").Inc()
	c.logger.InfoContext(ctx, "transfer initiated",
		"subject_id", record.SubjectID,
		"record_did", record.RecordDID,
	)
	return record, nil
}

// Sign stores the adopter's signature over the canonical message. Submitting
// the same signature again is idempotent; a different signature after SIGNED
// is an invalid state.
func (c *Coordinator) Sign(ctx context.Context, caller, subjectID, signature string) (transfer.Record, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.Sign", trace.WithAttributes(
		attribute.String("transfer.subject_id", subjectID),
	))
	defer span.End()

	if signature == "" {
		return c.fail("sign", transfer.Record{}, dErrors.New(dErrors.CodeValidation, "signature is required"))
	}

	record, err := c.load(ctx, subjectID)
	if err != nil {
		return c.fail("sign", transfer.Record{}, err)
	}
	if !transfer.SameAddress(record.NewGuardian, caller) {
		return c.fail("sign", transfer.Record{}, dErrors.New(dErrors.CodeUnauthorized, "caller is not the designated new guardian"))
	}
	if record.Status == transfer.StatusSigned && record.Signature == signature {
		operationsTotal.WithLabelValues("sign", "idempotent").Inc()
		return record, nil
	}
	if record.Status != transfer.StatusInitiated {
		return c.fail("sign", transfer.Record{}, invalidState(record.Status))
	}

	updated, err := c.store.UpdateStatus(ctx, subjectID, transfer.StatusInitiated, transfer.Patch{
		Status:    transfer.StatusSigned,
		Signature: signature,
	}, c.now())
	if err != nil {
		return c.fail("sign", transfer.Record{}, mapStoreError(err))
	}

	c.broadcast(ctx, updated, notify.EventTransferUpdated, nil)
	c.audit(ctx, updated, audit.EventTransferSigned, caller, "")
	operationsTotal.WithLabelValues("sign", "success").Inc()
	return updated, nil
}

// VerifyResult reports the oracle's decision alongside the record. On a
// mismatch the record is unchanged and Success is false.
type VerifyResult struct {
	Success    bool
	Similarity float64
	Record     transfer.Record
}

// Verify runs the biometric comparison. A below-threshold score reports a
// mismatch and leaves the record in SIGNED so the adopter can retry with a
// new image.
func (c *Coordinator) Verify(ctx context.Context, caller, subjectID, imageKey string) (VerifyResult, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.Verify", trace.WithAttributes(
		attribute.String("transfer.subject_id", subjectID),
	))
	defer span.End()

	if imageKey == "" {
		return c.failVerify(dErrors.New(dErrors.CodeValidation, "imageKey is required"))
	}

	record, err := c.load(ctx, subjectID)
	if err != nil {
		return c.failVerify(err)
	}
	if !transfer.SameAddress(record.NewGuardian, caller) {
		return c.failVerify(dErrors.New(dErrors.CodeUnauthorized, "caller is not the designated new guardian"))
	}
	if record.Status != transfer.StatusSigned {
		return c.failVerify(invalidState(record.Status))
	}

	result, err := c.oracle.Compare(ctx, record.RecordDID, imageKey)
	if err != nil {
		return c.failVerify(err)
	}
	if !result.Success {
		c.audit(ctx, record, audit.EventBiometricRejected, caller, "similarity below threshold")
		operationsTotal.WithLabelValues("verify", "mismatch").Inc()
		return VerifyResult{Success: false, Similarity: result.Similarity, Record: record},
			dErrors.Newf(dErrors.CodeBiometricMismatch, "biometric similarity %.0f below threshold", result.Similarity)
	}

	similarity := result.Similarity
	updated, err := c.store.UpdateStatus(ctx, subjectID, transfer.StatusSigned, transfer.Patch{
		Status:            transfer.StatusVerified,
		VerificationProof: result.Proof,
		Similarity:        &similarity,
	}, c.now())
	if err != nil {
		return c.failVerify(mapStoreError(err))
	}

	c.broadcast(ctx, updated, notify.EventTransferUpdated, &similarity)
	c.audit(ctx, updated, audit.EventBiometricVerified, caller, "")
	operationsTotal.WithLabelValues("verify", "success").Inc()
	return VerifyResult{Success: true, Similarity: similarity, Record: updated}, nil
}

func (c *Coordinator) failVerify(err error) (VerifyResult, error) {
	operationsTotal.WithLabelValues("verify", "error").Inc()
	return VerifyResult{}, err
}

// Accept confirms the controller-change transaction and completes the
// transfer. Timeouts and reverts leave the record in VERIFIED so the adopter
// can retry; only a confirmed transaction moves it to COMPLETED.
func (c *Coordinator) Accept(ctx context.Context, caller, subjectID string) (AcceptResult, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.Accept", trace.WithAttributes(
		attribute.String("transfer.subject_id", subjectID),
	))
	defer span.End()

	record, err := c.load(ctx, subjectID)
	if err != nil {
		return c.failAccept(err)
	}
	if record.Status != transfer.StatusVerified {
		return c.failAccept(invalidState(record.Status))
	}
	if !transfer.SameAddress(record.NewGuardian, caller) {
		return c.failAccept(dErrors.New(dErrors.CodeGuardianMismatch, "authenticated wallet does not match the guardian named in the signed message"))
	}

	// A third party taking control of the record between initiation and
	// acceptance would make the captured transaction meaningless. The
	// controller must still be one of the two parties: the previous guardian
	// while the transaction is pending, or the new guardian once mined.
	controller, err := c.ledger.GetController(ctx, record.RecordDID)
	if err != nil {
		return c.failAccept(dErrors.Wrap(err, dErrors.CodeChain, "re-reading on-chain controller failed"))
	}
	if !transfer.SameAddress(controller, record.PreviousGuardian) && !transfer.SameAddress(controller, record.NewGuardian) {
		return c.failAccept(dErrors.New(dErrors.CodeChain, "on-chain controller changed outside this transfer"))
	}

	confirmation, err := c.ledger.WaitForConfirmation(ctx, record.Prepare.TransactionHash, c.confirmTimeout)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrReverted):
			return c.failAccept(dErrors.Wrap(err, dErrors.CodeChain, "controller-change transaction reverted"))
		case errors.Is(err, ledger.ErrConfirmationTimeout):
			return c.failAccept(dErrors.Wrap(err, dErrors.CodeChain, "timed out waiting for confirmation, retry accept"))
		default:
			return c.failAccept(dErrors.Wrap(err, dErrors.CodeChain, "confirmation failed"))
		}
	}

	updated, err := c.store.UpdateStatus(ctx, subjectID, transfer.StatusVerified, transfer.Patch{
		Status: transfer.StatusCompleted,
	}, c.now())
	if err != nil {
		return c.failAccept(mapStoreError(err))
	}

	c.broadcast(ctx, updated, notify.EventTransferUpdated, updated.Similarity)
	c.audit(ctx, updated, audit.EventTransferCompleted, caller, "")
	operationsTotal.WithLabelValues("accept", "success").Inc()
	c.logger.InfoContext(ctx, "transfer completed",
		"subject_id", updated.SubjectID,
		"tx_hash", confirmation.TxHash,
		"block_number", confirmation.BlockNumber,
	)
	return AcceptResult{
		TxHash:      confirmation.TxHash,
		BlockNumber: confirmation.BlockNumber,
		Record:      updated,
	}, nil
}

// Cancel aborts a transfer from any non-terminal state. Either party may
// cancel; a terminal record is never overwritten.
func (c *Coordinator) Cancel(ctx context.Context, caller, subjectID string) (transfer.Record, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.Cancel", trace.WithAttributes(
		attribute.String("transfer.subject_id", subjectID),
	))
	defer span.End()

	record, err := c.load(ctx, subjectID)
	if err != nil {
		return c.fail("cancel", transfer.Record{}, err)
	}
	if !transfer.SameAddress(record.PreviousGuardian, caller) && !transfer.SameAddress(record.NewGuardian, caller) {
		return c.fail("cancel", transfer.Record{}, dErrors.New(dErrors.CodeUnauthorized, "only a transfer party may cancel"))
	}

	cancelled, err := c.store.Cancel(ctx, subjectID, c.now())
	if err != nil {
		return c.fail("cancel", transfer.Record{}, mapStoreError(err))
	}

	c.broadcast(ctx, cancelled, notify.EventTransferCancelled, nil)
	c.audit(ctx, cancelled, audit.EventTransferCancelled, caller, "")
	operationsTotal.WithLabelValues("cancel", "success").Inc()
	return cancelled, nil
}

// Resume loads the record and reports which step the client should present.
// It has no side effects. A completed transfer cannot be resumed.
func (c *Coordinator) Resume(ctx context.Context, subjectID string) (ResumeView, error) {
	record, err := c.load(ctx, subjectID)
	if err != nil {
		return ResumeView{}, err
	}
	if record.Status == transfer.StatusCompleted {
		return ResumeView{}, dErrors.New(dErrors.CodeInvalidState, "transfer already completed")
	}
	return ResumeView{Record: record, Step: record.NextStep()}, nil
}

// Get returns the canonical record without the resume step mapping.
func (c *Coordinator) Get(ctx context.Context, subjectID string) (transfer.Record, error) {
	return c.load(ctx, subjectID)
}

func (c *Coordinator) load(ctx context.Context, subjectID string) (transfer.Record, error) {
	if subjectID == "" {
		return transfer.Record{}, dErrors.New(dErrors.CodeValidation, "subjectId is required")
	}
	record, err := c.store.Get(ctx, subjectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return transfer.Record{}, dErrors.New(dErrors.CodeNotFound, "no transfer exists for this listing")
	}
	return record, err
}

func (c *Coordinator) broadcast(ctx context.Context, record transfer.Record, event notify.EventType, similarity *float64) {
	err := c.broadcaster.Publish(ctx, notify.Event{
		SubjectID:  record.SubjectID,
		Type:       event,
		Status:     string(record.Status),
		Similarity: similarity,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "broadcast failed",
			"subject_id", record.SubjectID,
			"event", string(event),
			"error", err,
		)
	}
}

func (c *Coordinator) audit(ctx context.Context, record transfer.Record, action audit.AuditEvent, actor, reason string) {
	event := audit.Event{
		SubjectID: record.SubjectID,
		RecordDID: record.RecordDID,
		Action:    string(action),
		Actor:     transfer.NormalizeAddress(actor),
		Status:    string(record.Status),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if record.Similarity != nil {
		event.Similarity = *record.Similarity
	}
	c.auditor.Emit(ctx, event)
}

func (c *Coordinator) fail(operation string, record transfer.Record, err error) (transfer.Record, error) {
	operationsTotal.WithLabelValues(operation, "error").Inc()
	return record, err
}

func (c *Coordinator) failAccept(err error) (AcceptResult, error) {
	operationsTotal.WithLabelValues("accept", "error").Inc()
	return AcceptResult{}, err
}

func invalidState(current transfer.Status) error {
	return dErrors.Newf(dErrors.CodeInvalidState, "operation not valid while transfer is %s", current)
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "no transfer exists for this listing")
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrTerminal):
		return dErrors.New(dErrors.CodeInvalidState, "transfer state changed, reload and retry")
	}
	return err
}
