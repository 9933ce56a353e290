package models

import (
	"time"
)

// DropboxPluginID identifies identities created by the Dropbox login
const DropboxPluginID = "social_auth_dropbox"

// User represents a local account
type User struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Picture   string    `json:"picture" db:"picture"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SocialIdentity links a local user to an account at an external provider
type SocialIdentity struct {
	ID             int        `json:"id" db:"id"`
	UserID         int        `json:"user_id" db:"user_id"`
	PluginID       string     `json:"plugin_id" db:"plugin_id"`
	ProviderUserID string     `json:"provider_user_id" db:"provider_user_id"`
	Token          string     `json:"-" db:"token"`
	AdditionalData string     `json:"additional_data,omitempty" db:"additional_data"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt     *time.Time `json:"modified_at,omitempty" db:"modified_at"`
}
