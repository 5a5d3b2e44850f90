package utils

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 32

// NewToken returns a random, URL-safe opaque token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
