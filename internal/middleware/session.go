package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/httputil"
)

// SessionAuthenticator turns a session token into the identity it carries
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// TokenSource extracts the raw session token from a request
type TokenSource interface {
	TokenFromRequest(r *http.Request) string
}

// LoginPath is where browser navigations without a session are sent.
const LoginPath = "/login"

// RequireSession rejects requests without a valid session and stores the
// caller's identity in the request context for the handlers behind it.
func RequireSession(sessions SessionAuthenticator, tokens TokenSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := sessions.Authenticate(r.Context(), tokens.TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					httputil.Logger(r, logger).Error("session check failed", "error", err)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "please log in first")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, id))
		})
	}
}

// wantsHTML reports a browser page navigation
func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
