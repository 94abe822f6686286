package domain

import (
	"crypto/rand"
	"strings"
)

const (
	appNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	appNumberLength   = 16
)

// NewAppNumber generates a random application number. Sixteen characters
// over a 36-symbol alphabet gives roughly 83 bits of entropy, enough to
// make guessing a specific number impractical. Uniqueness is not checked
// here; the storage layer enforces it with a unique index.
func NewAppNumber() string {
	// bytes >= 252 are rejected so every symbol is equally likely
	// (252 is the largest multiple of 36 below 256)
	const rejectAbove = byte(252)

	out := make([]byte, 0, appNumberLength)
	buf := make([]byte, 2*appNumberLength)
	for len(out) < appNumberLength {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, appNumberAlphabet[int(b)%len(appNumberAlphabet)])
			if len(out) == appNumberLength {
				break
			}
		}
	}
	return string(out)
}

// NormalizeAppNumber uppercases and trims an application number so lookups
// and ledger membership are case-insensitive.
func NormalizeAppNumber(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidAppNumber reports whether value has the expected shape.
func ValidAppNumber(value string) bool {
	value = NormalizeAppNumber(value)
	if len(value) != appNumberLength {
		return false
	}
	for _, r := range value {
		if !strings.ContainsRune(appNumberAlphabet, r) {
			return false
		}
	}
	return true
}
