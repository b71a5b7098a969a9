package models

import "time"

// OTPChallenge is the durable ledger row for one issued code. The plain code is never stored.
type OTPChallenge struct {
	ID         int64      `json:"id"`
	PhoneKey   string     `json:"phone"`
	CodeHash   string     `json:"-"`
	Channel    string     `json:"channel,omitempty"`
	Delivered  bool       `json:"delivered"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}
