package server

import (
	"crypto/rand"
	"encoding/base64"
)

// stateBytes is the entropy of the OAuth state parameter
const stateBytes = 32

// generateRandomString creates a random base64url string
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
