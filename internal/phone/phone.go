// Package phone canonicalizes raw phone input into the key used as account identity.
package phone

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// 9-15 digits, country code included when the client sends it.
var keyPattern = regexp.MustCompile(`^[0-9]{9,15}$`)

// Normalize strips whitespace and a leading "+" and validates the digit count.
// The returned key is the only form other packages should store or compare.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	key := strings.TrimPrefix(b.String(), "+")
	if !keyPattern.MatchString(key) {
		return "", ErrInvalidPhone
	}
	return key, nil
}

// E164 renders a key in "+<digits>" form for outbound providers.
func E164(key string) string {
	return "+" + key
}

// Mask hides the middle of a key for logs: 2439****0001.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
