// Package otp holds the Redis-backed one-time code store, the request rate limiter and the
// phone blocklist. Every read-then-write runs inside a single Redis script or MULTI block so
// several service instances can share the same state.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const (
	MinCodeLength     = 4
	MaxCodeLength     = 10
	DefaultCodeLength = 6
)

var errInvalidCodeLength = errors.New("otp: invalid code length")

// NewCode draws each digit from crypto/rand.
func NewCode(digits int) (string, error) {
	if digits < MinCodeLength || digits > MaxCodeLength {
		return "", errInvalidCodeLength
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashCode binds the code to the phone so equal codes for different phones hash differently.
func HashCode(phoneKey, code string) string {
	sum := sha256.Sum256([]byte(phoneKey + ":" + code))
	return hex.EncodeToString(sum[:])
}

// IsNumeric reports whether s is a non-empty string of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
