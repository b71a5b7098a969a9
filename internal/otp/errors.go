package otp

import "errors"

var (
	ErrRateLimited      = errors.New("otp: rate limited")
	ErrInvalidCode      = errors.New("otp: invalid code")
	ErrExpired          = errors.New("otp: code expired")
	ErrTooManyAttempts  = errors.New("otp: too many verification attempts")
	ErrDebugDisabled    = errors.New("otp: debug peek disabled")
	ErrNoChallenge      = errors.New("otp: no live challenge")
	ErrRelayNotFound    = errors.New("otp: relay request not found")
	ErrStoreUnavailable = errors.New("otp: redis unavailable")
)
