package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/quotecast/quotecast/internal/auth"
	"github.com/quotecast/quotecast/internal/metrics"
)

const dashboardPath = "/dashboard"

// Login error messages shown on the login page.
const (
	loginErrNotConfigured = "Dashboard password is not configured"
	loginErrInvalid       = "Invalid password"
	loginErrRateLimited   = "Too many attempts, try again shortly"
)

// loginMessages whitelists the ?error= values rendered on the login page.
var loginMessages = map[string]bool{
	loginErrNotConfigured: true,
	loginErrInvalid:       true,
	loginErrRateLimited:   true,
}

// AuthHandler handles dashboard login and logout.
type AuthHandler struct {
	pages         *Pages
	authenticator *auth.Authenticator
	sessions      *auth.Sessions
	cookies       *auth.CookieAuth
	metrics       metrics.Recorder
	logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(pages *Pages, authenticator *auth.Authenticator, sessions *auth.Sessions, cookies *auth.CookieAuth, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		pages:         pages,
		authenticator: authenticator,
		sessions:      sessions,
		cookies:       cookies,
		metrics:       recorder,
		logger:        logger,
	}
}

type loginPage struct {
	Error string
}

// LoginForm handles GET /login. Operators with a live session go straight
// to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Validate(h.cookies.GetToken(r)); err == nil {
		http.Redirect(w, r, dashboardPath, http.StatusFound)
		return
	}

	msg := r.URL.Query().Get("error")
	if !loginMessages[msg] {
		msg = ""
	}
	h.pages.render(w, http.StatusOK, "login.html", loginPage{Error: msg})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectLoginError(w, r, loginErrInvalid)
		return
	}

	if err := h.authenticator.Check(r.PostForm.Get("password")); err != nil {
		h.metrics.IncLoginAttempt(false)
		if errors.Is(err, auth.ErrNotConfigured) {
			h.logger.Error("dashboard login attempted without a configured password", "error", err)
			redirectLoginError(w, r, loginErrNotConfigured)
			return
		}
		h.logger.Warn("dashboard login failed")
		redirectLoginError(w, r, loginErrInvalid)
		return
	}

	token, expiresAt, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.metrics.IncLoginAttempt(true)
	h.cookies.SetTokenCookie(w, token, expiresAt)
	h.logger.Info("dashboard login", slog.Time("expires_at", expiresAt))
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.RemoveTokenCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginRateLimited answers a throttled POST /login.
func LoginRateLimited(w http.ResponseWriter, r *http.Request, _ time.Duration) {
	redirectLoginError(w, r, loginErrRateLimited)
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
