package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindRateLimited
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Machine-readable error codes.
const (
	CodeInvalidPhone            = "invalid_phone"
	CodeInvalidPassword         = "invalid_password"
	CodePasswordMismatch        = "password_mismatch"
	CodeCodeRequired            = "code_required"
	CodeInvalidCode             = "invalid_code"
	CodeCodeExpired             = "code_expired"
	CodeTooManyAttempts         = "too_many_attempts"
	CodeRateLimited             = "rate_limited"
	CodeAlreadyRegistered       = "already_registered"
	CodeNotLegacy               = "not_legacy"
	CodeAlreadySet              = "password_already_set"
	CodeAccountNotFound         = "account_not_found"
	CodeNotFound                = "not_found"
	CodeInvalidCredentials      = "invalid_credentials"
	CodeCredentialSetupRequired = "credential_setup_required"
	CodeDisabled                = "account_disabled"
	CodeBlocked                 = "phone_blocked"
	CodeInvalidToken            = "invalid_token"
	CodeInternal                = "internal_error"
)

// AuthError is the only error type handlers translate into responses.
// Flow and RedirectTo tell the client which endpoint to call instead.
type AuthError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	Flow       string
	RedirectTo string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, code, msg string) *AuthError {
	return &AuthError{Kind: kind, Code: code, Message: msg}
}

func (e *AuthError) wrap(err error) *AuthError {
	e.Err = err
	return e
}

func (e *AuthError) redirect(flow, to string) *AuthError {
	e.Flow = flow
	e.RedirectTo = to
	return e
}

func internalError(err error) *AuthError {
	return newError(KindInternal, CodeInternal, "internal error").wrap(err)
}

// AsAuthError maps any error onto an AuthError, treating unknown errors as internal.
func AsAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return internalError(err)
}
