package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Opaque capability tokens are 16 hex characters from a cryptographically
// strong source. Possession of a token is the access control for the admin
// and recovery flows, so they must be impractical to guess or enumerate.
const tokenBytes = 8

// tokenInsertRetries bounds the regenerate-and-retry loop when a freshly
// generated token collides with an existing row.
const tokenInsertRetries = 3

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
