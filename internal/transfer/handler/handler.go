// Package handler exposes the transfer protocol over HTTP. Handlers stay
// thin: decode, call the coordinator, map domain errors onto status codes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"petledger/internal/notify"
	"petledger/internal/platform/metrics"
	"petledger/internal/platform/middleware"
	"petledger/internal/transfer"
	"petledger/internal/transfer/service"
	dErrors "petledger/pkg/domain-errors"
	"petledger/pkg/platform/httputil"
	"petledger/pkg/requestcontext"
)

// Coordinator is the transfer state machine as seen by transport. Other
// features (the conversation flow that triggers initiation, for one) call
// through this interface as well; nothing outside it touches the store.
type Coordinator interface {
	Initiate(ctx context.Context, caller string, p service.InitiateParams) (transfer.Record, error)
	Sign(ctx context.Context, caller, subjectID, signature string) (transfer.Record, error)
	Verify(ctx context.Context, caller, subjectID, imageKey string) (service.VerifyResult, error)
	Accept(ctx context.Context, caller, subjectID string) (service.AcceptResult, error)
	Cancel(ctx context.Context, caller, subjectID string) (transfer.Record, error)
	Resume(ctx context.Context, subjectID string) (service.ResumeView, error)
	Get(ctx context.Context, subjectID string) (transfer.Record, error)
}

// Handler handles transfer endpoints.
type Handler struct {
	coordinator Coordinator
	broadcaster notify.Broadcaster
	logger      *slog.Logger
	metrics     *metrics.Metrics
	validator   middleware.WalletValidator
	upgrader    websocket.Upgrader
}

func New(coordinator Coordinator, broadcaster notify.Broadcaster, validator middleware.WalletValidator, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		coordinator: coordinator,
		broadcaster: broadcaster,
		validator:   validator,
		logger:      logger,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Register mounts the transfer routes. The events stream lives outside the
// timeout and content-type middleware because it is a long-lived websocket.
func (h *Handler) Register(r chi.Router) {
	tr := chi.NewRouter()
	tr.Use(middleware.Recovery(h.logger))
	tr.Use(middleware.RequestID)
	tr.Use(middleware.Logger(h.logger))
	tr.Use(middleware.DeviceLabel)
	tr.Use(middleware.LatencyMiddleware(h.metrics))
	tr.Use(middleware.RequireAuth(h.validator, h.logger))

	tr.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(3 * time.Minute))
		api.Use(middleware.ContentTypeJSON)
		api.Post("/transfers/prepare", h.handlePrepare)
		api.Get("/transfers/{subjectID}", h.handleGet)
		api.Get("/transfers/{subjectID}/resume", h.handleResume)
		api.Post("/transfers/{subjectID}/sign", h.handleSign)
		api.Post("/transfers/{subjectID}/verify", h.handleVerify)
		api.Post("/transfers/{subjectID}/accept", h.handleAccept)
		api.Post("/transfers/{subjectID}/cancel", h.handleCancel)
	})
	tr.Get("/transfers/{subjectID}/events", h.handleEvents)

	r.Mount("/", tr)
}

type prepareRequest struct {
	SubjectID          string            `json:"subjectId"`
	RecordDID          string            `json:"recordDid"`
	NewGuardianAddress string            `json:"newGuardianAddress"`
	TransactionHash    string            `json:"transactionHash"`
	Attributes         map[string]string `json:"attributes"`
}

type recordResponse struct {
	Success bool            `json:"success"`
	Data    transfer.Record `json:"data"`
}

func (h *Handler) handlePrepare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetWalletAddress(ctx)

	var req prepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.coordinator.Initiate(ctx, caller, service.InitiateParams{
		SubjectID:       req.SubjectID,
		RecordDID:       req.RecordDID,
		NewGuardian:     req.NewGuardianAddress,
		TransactionHash: req.TransactionHash,
		Attributes:      transfer.Attributes(req.Attributes),
	})
	if err != nil {
		h.logWarn(ctx, "prepare failed", req.SubjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordResponse{Success: true, Data: record})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.coordinator.Get(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Success: true, Data: record})
}

type resumeResponse struct {
	Success bool            `json:"success"`
	Step    transfer.Step   `json:"step"`
	Data    transfer.Record `json:"data"`
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	view, err := h.coordinator.Resume(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resumeResponse{Success: true, Step: view.Step, Data: view.Record})
}

type signRequest struct {
	Signature string `json:"signature"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.coordinator.Sign(ctx, middleware.GetWalletAddress(ctx), subjectID, req.Signature)
	if err != nil {
		h.logWarn(ctx, "sign failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Success: true, Data: record})
}

type verifyRequest struct {
	ImageKey string `json:"imageKey"`
}

type verifyResponse struct {
	Success           bool    `json:"success"`
	Similarity        float64 `json:"similarity"`
	VerificationProof string  `json:"verificationProof,omitempty"`
	Error             string  `json:"error,omitempty"`
	Description       string  `json:"description,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.coordinator.Verify(ctx, middleware.GetWalletAddress(ctx), subjectID, req.ImageKey)
	if err != nil {
		// A mismatch is a negative result, not a transport failure. The
		// caller gets the score back so the UI can prompt a retry.
		if dErrors.Is(err, dErrors.CodeBiometricMismatch) {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, verifyResponse{
				Success:     false,
				Similarity:  result.Similarity,
				Error:       string(dErrors.CodeBiometricMismatch),
				Description: "similarity below threshold",
			})
			return
		}
		h.logWarn(ctx, "verify failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Success:           true,
		Similarity:        result.Similarity,
		VerificationProof: result.Record.VerificationProof,
	})
}

type acceptResponse struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")

	result, err := h.coordinator.Accept(ctx, middleware.GetWalletAddress(ctx), subjectID)
	if err != nil {
		h.logWarn(ctx, "accept failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptResponse{
		Success:     true,
		TxHash:      result.TxHash,
		BlockNumber: result.BlockNumber,
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")

	record, err := h.coordinator.Cancel(ctx, middleware.GetWalletAddress(ctx), subjectID)
	if err != nil {
		h.logWarn(ctx, "cancel failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Success: true, Data: record})
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// handleEvents upgrades to a websocket and streams transition events for one
// subject. Payloads are advisory; clients re-fetch canonical state through
// the resume endpoint when an event arrives.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")

	events, cancel, err := h.broadcaster.Subscribe(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "event stream unavailable"))
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			"subject_id", subjectID,
			"error", err,
		)
		return
	}
	defer conn.Close()

	h.logger.InfoContext(ctx, "event stream opened",
		"subject_id", subjectID,
		"wallet", middleware.GetWalletAddress(ctx),
		"device", requestcontext.DeviceLabel(ctx),
	)

	// Drain client frames so pong handling and close detection work.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) logWarn(ctx context.Context, msg, subjectID string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"subject_id", subjectID,
		"error", err.Error(),
	)
}
