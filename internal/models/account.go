package models

import "time"

type CredentialState string

const (
	CredentialNoPassword  CredentialState = "NO_PASSWORD"
	CredentialPasswordSet CredentialState = "PASSWORD_SET"
)

// Account is a vendor or admin identified by a normalized phone key.
type Account struct {
	ID              int64           `json:"id"`
	PhoneKey        string          `json:"phone"`
	PasswordHash    string          `json:"-"` // never serialized
	CredentialState CredentialState `json:"credential_state"`
	PhoneVerified   bool            `json:"is_phone_verified"`
	Active          bool            `json:"is_active"`
	IsAdmin         bool            `json:"is_admin"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool {
	return a.CredentialState == CredentialPasswordSet && a.PasswordHash != ""
}
