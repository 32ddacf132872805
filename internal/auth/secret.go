package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionSecretBytes is the length of a generated signing secret.
const sessionSecretBytes = 32

// GenerateSecret returns a random hex-encoded signing secret. Used when no
// SESSION_SECRET is configured, which invalidates sessions on restart.
func GenerateSecret() (string, error) {
	buf := make([]byte, sessionSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
