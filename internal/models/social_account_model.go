package models

import (
	"time"
)

type SocialAccount struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Provider       string    `db:"provider" json:"provider"`
	ProviderID     string    `db:"provider_id" json:"provider_id"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Username       string    `db:"username" json:"username"`
	ProfilePicture string    `db:"profile_picture_url" json:"profile_picture"`
	Token          string    `db:"token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	PageID         string    `db:"page_id" json:"page_id"`
	PageToken      string    `db:"page_token" json:"-"`
	InstanceURL    string    `db:"instance_url" json:"instance_url"`
	ProfileData    string    `db:"profile_data" json:"profile_data"`
	ErrorCount     int       `db:"error_count" json:"error_count"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
