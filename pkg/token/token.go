// Package token generates opaque random strings used as session bearer
// tokens.
package token

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SessionLength is the length of a session token.
const SessionLength = 30

var ErrInvalidLength = errors.New("token.invalid_length")

// Generate returns a uniformly random alphanumeric string of length n.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Session returns a new session token.
func Session() (string, error) {
	return Generate(SessionLength)
}
