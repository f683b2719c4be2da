package model

import "time"

// Account represents a registered user of the dashboard and desktop client.
type Account struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsAdmin      bool       `json:"is_admin"`
	IsActive     bool       `json:"is_active"`
	LicenseKey   string     `json:"license_key,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// AccountView is the public projection of an account returned by the API.
// It never carries the password hash.
type AccountView struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	IsAdmin        bool       `json:"is_admin"`
	IsActive       bool       `json:"is_active"`
	LicenseKey     string     `json:"license_key,omitempty"`
	LicenseExpires *time.Time `json:"license_expires,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
}

// View returns the public projection of the account.
func (a *Account) View() AccountView {
	return AccountView{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		IsAdmin:    a.IsAdmin,
		IsActive:   a.IsActive,
		LicenseKey: a.LicenseKey,
		CreatedAt:  a.CreatedAt,
		LastLogin:  a.LastLogin,
	}
}
