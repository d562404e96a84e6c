package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"petledger/pkg/requestcontext"
)

// WalletValidator validates a wallet-session token and returns its claims.
// Tokens are issued by the DID login flow, which is outside this service; we
// only consume them to learn the caller's authenticated wallet address.
type WalletValidator interface {
	ValidateToken(tokenString string) (*WalletClaims, error)
}

// WalletClaims are the claims the transfer APIs care about.
type WalletClaims struct {
	Address   string
	SessionID string
}

// GetWalletAddress retrieves the authenticated wallet address from the context.
func GetWalletAddress(ctx context.Context) string {
	return requestcontext.WalletAddress(ctx)
}

// RequireAuth rejects requests without a valid Bearer token and injects the
// caller's wallet address and session ID into the request context.
func RequireAuth(validator WalletValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithWalletAddress(ctx, claims.Address)
			ctx = requestcontext.WithSessionID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
