package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means no dashboard password is set.
	ErrNotConfigured = errors.New("dashboard password not configured")
	// ErrInvalidCredentials means the supplied password did not match.
	ErrInvalidCredentials = errors.New("invalid password")
)

// Authenticator checks the shared dashboard password.
type Authenticator struct {
	password     string
	passwordHash string
}

// NewAuthenticator creates an Authenticator. When passwordHash is set it
// takes precedence over the plaintext password.
func NewAuthenticator(password, passwordHash string) *Authenticator {
	return &Authenticator{password: password, passwordHash: passwordHash}
}

// Configured reports whether a secret is available.
func (a *Authenticator) Configured() bool {
	return a.password != "" || a.passwordHash != ""
}

// Check returns nil when supplied matches the configured secret.
func (a *Authenticator) Check(supplied string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}

	if a.passwordHash != "" {
		ok, err := VerifyPassword(supplied, a.passwordHash)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		if !ok {
			return ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(supplied), []byte(a.password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
