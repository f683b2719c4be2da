package service

import (
	"fmt"
	"time"

	"skinchanger-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTokenTTL is the default session token lifetime (7 days),
	// sized for browser dashboard use.
	SessionTokenTTL = 7 * 24 * time.Hour

	// APITokenTTL is the default API token lifetime (365 days), sized for
	// unattended desktop-client polling.
	APITokenTTL = 365 * 24 * time.Hour
)

// TokenService mints and verifies signed bearer tokens. Session tokens are
// stateless; API tokens are additionally persisted by the auth service for
// auditability.
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	apiTTL     time.Duration
}

// NewTokenService creates a new token service signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		sessionTTL: SessionTokenTTL,
		apiTTL:     APITokenTTL,
	}
}

// SessionTTL returns the session token validity window.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// APITTL returns the API token validity window.
func (s *TokenService) APITTL() time.Duration {
	return s.apiTTL
}

// MintSession creates a signed session token for the account.
func (s *TokenService) MintSession(accountID int64, username string) (string, error) {
	return s.mint(accountID, username, model.TokenTypeSession, s.sessionTTL)
}

// MintAPI creates a signed long-lived API token for the account.
// Each call mints a distinct token; none are retired by minting another.
func (s *TokenService) MintAPI(accountID int64, username string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.apiTTL)
	token, err := s.mint(accountID, username, model.TokenTypeAPI, s.apiTTL)
	return token, expiresAt, err
}

func (s *TokenService) mint(accountID int64, username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := model.Claims{
		AccountID: accountID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning its claims.
func (s *TokenService) Verify(tokenString string) (*model.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*model.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
