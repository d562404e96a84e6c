package testutil

import (
	"net/http"

	"petledger/pkg/requestcontext"
)

// WithWallet adds an authenticated wallet address to the request context.
// This simulates what the auth middleware does after validating a session
// token.
func WithWallet(req *http.Request, address string) *http.Request {
	return req.WithContext(requestcontext.WithWalletAddress(req.Context(), address))
}

// WithSession adds a session ID to the request context.
func WithSession(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithAuth adds both wallet address and session ID to the request context.
// This is the typical state for an authenticated request.
func WithAuth(req *http.Request, address, sessionID string) *http.Request {
	ctx := req.Context()
	if address != "" {
		ctx = requestcontext.WithWalletAddress(ctx, address)
	}
	if sessionID != "" {
		ctx = requestcontext.WithSessionID(ctx, sessionID)
	}
	return req.WithContext(ctx)
}
