package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petledger/internal/auth/jwt"
	dErrors "petledger/pkg/domain-errors"
)

type JWTSuite struct {
	suite.Suite
	service *jwt.Service
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) SetupTest() {
	s.service = jwt.NewService("test-signing-key", "petledger", "petledger-api")
}

func (s *JWTSuite) TestGenerateAndValidate() {
	token, err := s.service.GenerateToken("0xBBB", "session-1", time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(token)

	claims, err := s.service.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal("0xbbb", claims.WalletAddress)
	s.Equal("session-1", claims.SessionID)
}

func (s *JWTSuite) TestGenerateRequiresWalletAddress() {
	_, err := s.service.GenerateToken("", "session-1", time.Hour)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *JWTSuite) TestValidateRejectsExpiredToken() {
	token, err := s.service.GenerateToken("0xBBB", "session-1", -time.Minute)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestValidateRejectsWrongKey() {
	other := jwt.NewService("different-key", "petledger", "petledger-api")
	token, err := other.GenerateToken("0xBBB", "session-1", time.Hour)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestValidateRejectsGarbage() {
	_, err := s.service.ValidateToken("not-a-token")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}
