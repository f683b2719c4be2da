package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types embedded in the JWT "type" claim.
const (
	TokenTypeSession = "session"
	TokenTypeAPI     = "api"
)

// Claims is the signed payload carried by session and API tokens.
// Role is deliberately absent: admin checks re-read the account on every
// request so a demotion takes effect immediately.
type Claims struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// APIToken is a persisted long-lived credential for the desktop client.
// The signed string itself is stateless; the row exists for auditability
// and last-used tracking. Minting a new token never revokes older ones.
type APIToken struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"account_id"`
	Token     string     `json:"token"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}
