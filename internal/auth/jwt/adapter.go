package jwt

import "petledger/internal/platform/middleware"

// MiddlewareAdapter bridges the token service to the middleware's
// WalletValidator interface without the middleware importing this package.
type MiddlewareAdapter struct {
	svc *Service
}

func NewMiddlewareAdapter(svc *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.WalletClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.WalletClaims{
		Address:   claims.WalletAddress,
		SessionID: claims.SessionID,
	}, nil
}
