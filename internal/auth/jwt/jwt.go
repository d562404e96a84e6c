// Package jwt issues and validates wallet-session tokens. The DID login flow
// (challenge signed by the wallet) lives in a separate service; tokens it
// issues are validated here so transfer APIs know the caller's address.
package jwt

import (
	"errors"
	"strings"
	"time"

	dErrors "petledger/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a wallet-session token.
type Claims struct {
	WalletAddress string `json:"wallet_address"`
	SessionID     string `json:"session_id"`
	jwt.RegisteredClaims
}

// Service handles token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateToken mints a session token bound to a wallet address. Used by the
// login callback and by tests; addresses are stored lowercased so claim
// comparisons stay case-insensitive.
func (s *Service) GenerateToken(walletAddress string, sessionID string, expiresIn time.Duration) (string, error) {
	if walletAddress == "" {
		return "", dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		WalletAddress: strings.ToLower(walletAddress),
		SessionID:     sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a session token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.WalletAddress == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
