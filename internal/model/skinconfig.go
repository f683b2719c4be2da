package model

import "time"

// SkinConfig is a per-account, per-weapon skin selection.
// At most one row exists per (account_id, weapon_id); a second write for
// the same weapon updates the existing row.
type SkinConfig struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	WeaponCategory string    `json:"weapon_category"`
	WeaponName     string    `json:"weapon_name"`
	WeaponID       int       `json:"weapon_id"`
	SkinName       string    `json:"skin_name"`
	PaintKit       int       `json:"paint_kit"`
	Wear           *float64  `json:"wear,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Stats are the aggregate counts shown on the admin dashboard.
type Stats struct {
	TotalUsers     int64 `json:"total_users"`
	ActiveUsers    int64 `json:"active_users"`
	TotalLicenses  int64 `json:"total_licenses"`
	UnusedLicenses int64 `json:"unused_licenses"`
	TotalConfigs   int64 `json:"total_configs"`
}
