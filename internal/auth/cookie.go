package auth

import (
	"net/http"
	"time"
)

// CookieSettings defines cookie settings for dashboard authentication.
type CookieSettings struct {
	Name   string
	Path   string
	Secure bool
}

// CookieAuth reads and writes the session cookie.
type CookieAuth struct {
	settings CookieSettings
}

// NewCookieAuth creates cookie authorization with provided settings.
func NewCookieAuth(settings CookieSettings) *CookieAuth {
	if settings.Name == "" {
		settings.Name = "quotecast_session"
	}
	if settings.Path == "" {
		settings.Path = "/"
	}
	return &CookieAuth{settings: settings}
}

// GetToken retrieves the session token from the request.
func (c *CookieAuth) GetToken(r *http.Request) string {
	cookie, err := r.Cookie(c.settings.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetTokenCookie sets the session cookie, hidden from scripts.
func (c *CookieAuth) SetTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.settings.Name,
		Value:    token,
		Path:     c.settings.Path,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.settings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RemoveTokenCookie expires the session cookie.
func (c *CookieAuth) RemoveTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.settings.Name,
		Value:    "",
		Path:     c.settings.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.settings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Name returns the name of the cookie storing the token.
func (c *CookieAuth) Name() string {
	return c.settings.Name
}
