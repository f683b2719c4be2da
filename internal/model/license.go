package model

import "time"

// LicenseKey represents a single-use activation code gating registration.
// A key transitions unused -> used exactly once; UsedBy is set atomically
// with the IsUsed flag.
type LicenseKey struct {
	ID        int64      `json:"id"`
	Key       string     `json:"key"`
	IsUsed    bool       `json:"is_used"`
	UsedBy    *int64     `json:"used_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// IsExpired reports whether the key carries an expiry that has passed.
// Expiry is a computed predicate checked at consumption time only; a key
// consumed before its expiry stays valid.
func (k *LicenseKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// LicenseKeyView is the admin listing projection, including the username
// of the consuming account when the key has been used.
type LicenseKeyView struct {
	LicenseKey
	UsedByUsername string `json:"used_by_username,omitempty"`
}
