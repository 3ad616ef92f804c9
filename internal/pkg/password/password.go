// Package password hashes and checks the shared access key that gates
// session creation.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrMismatch = errors.New("access key mismatch")

func Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty access key")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify accepts any key when hash is empty (open mode).
func Verify(hash, plain string) error {
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrMismatch
	}
	return nil
}
