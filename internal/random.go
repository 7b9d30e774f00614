package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const defaultNonceDigits = 8

// NewSessionID returns a random (v4) UUID string. Session ids are never
// derived from principal data, so they cannot be predicted or reused.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ParseSessionID reports whether sessionID is a canonical UUID string.
func ParseSessionID(sessionID string) (string, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return "", err
	}
	if id.String() != sessionID {
		return "", errors.New("session id is not in canonical form")
	}
	return sessionID, nil
}

// NewNonce returns a string of random decimal digits. A digits value of zero
// selects the default width.
func NewNonce(digits int) (string, error) {
	if digits == 0 {
		digits = defaultNonceDigits
	}
	if digits < 6 || digits > 16 {
		return "", errors.New("invalid nonce digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	nonce := b.String()
	if len(nonce) != digits {
		return "", fmt.Errorf("invalid nonce generation length")
	}
	return nonce, nil
}
