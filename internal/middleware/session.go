package middleware

import (
	"log/slog"
	"net/http"

	"github.com/quotecast/quotecast/internal/auth"
)

// LoginPath is where unauthenticated dashboard requests are sent.
const LoginPath = "/login"

// RequireSession redirects to the login page unless the request carries a
// valid session cookie. The session is stored in the request context.
func RequireSession(sessions *auth.Sessions, cookies *auth.CookieAuth, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.GetToken(r)
			session, err := sessions.Validate(token)
			if err != nil {
				if token != "" {
					logger.Info("rejected dashboard session",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("error", err.Error()),
					)
					cookies.RemoveTokenCookie(w)
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
		})
	}
}
