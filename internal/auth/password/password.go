// Package password wraps bcrypt hashing for stored credentials.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCost    = 12
	minPasswordLen = 8
)

var ErrWeakPassword = errors.New("password must be at least 8 characters")

func Hash(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", ErrWeakPassword
	}
	encoded, err := bcrypt.GenerateFromPassword([]byte(plain), defaultCost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
func Verify(plain, encoded string) bool {
	if encoded == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}
