package models

import "time"

// UserSocialConfig holds a user's per-provider credential configuration.
// ClientSecret is stored encrypted as hex(iv):hex(ciphertext).
type UserSocialConfig struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Provider       string     `db:"provider" json:"provider"`
	UsesCentralApp bool       `db:"uses_central_app" json:"uses_central_app"`
	ClientID       string     `db:"client_id" json:"client_id"`
	ClientSecret   string     `db:"client_secret" json:"-"`
	APIKey         string     `db:"api_key" json:"-"`
	BearerToken    string     `db:"bearer_token" json:"-"`
	IsVerified     bool       `db:"is_verified" json:"is_verified"`
	LastVerifiedAt *time.Time `db:"last_verified_at" json:"last_verified_at"`
	ErrorCount     int        `db:"error_count" json:"error_count"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
