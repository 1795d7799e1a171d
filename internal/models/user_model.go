package models

import "time"

type User struct {
	ID               int64     `db:"id" json:"id"`
	GoogleID         string    `db:"google_id" json:"google_id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	ProfilePicture   string    `db:"profile_picture" json:"profile_picture"`
	TwoFactorEnabled bool      `db:"two_factor_enabled" json:"two_factor_enabled"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
