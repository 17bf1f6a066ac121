package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"narreyes/internal/domain/models"
	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
	"narreyes/internal/session"
)

// SessionIssuer mints and revokes session tokens
type SessionIssuer interface {
	Issue(id models.Identity) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	credentials services.CredentialService
	sessions    SessionIssuer
	cookies     session.CookieConfig
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	credentials services.CredentialService,
	sessions SessionIssuer,
	cookies session.CookieConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		sessions:    sessions,
		cookies:     cookies,
		logger:      logger,
	}
}

// Register creates an account. It does not log the user in.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !parseBody(w, r, &req) {
		return
	}

	user, err := h.credentials.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, userResponse{
		User:    user,
		Message: "Registration successful! Please log in.",
	})
}

// Login verifies credentials and sets the session cookie
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !parseBody(w, r, &req) {
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	if !h.startSession(w, r, user.Identity()) {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, userResponse{
		User:    user,
		Message: "Welcome back, " + user.Username + "!",
	})
}

// Logout revokes the presented session, if any, and clears the cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.revokePresented(r)
	h.cookies.ClearCookie(w)
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "You have been logged out."})
}

// startSession issues a token for id and writes the cookie. It answers 500 itself on failure.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, id models.Identity) bool {
	token, expires, err := h.sessions.Issue(id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return false
	}
	h.cookies.SetCookie(w, token, expires)
	return true
}

// rotateSession replaces the presented session with a fresh one for id
func (h *AuthHandler) rotateSession(w http.ResponseWriter, r *http.Request, id models.Identity) bool {
	if !h.startSession(w, r, id) {
		return false
	}
	h.revokePresented(r)
	return true
}

// revokePresented revokes the token the request came with, if any
func (h *AuthHandler) revokePresented(r *http.Request) {
	token := h.cookies.TokenFromRequest(r)
	if token == "" {
		return
	}
	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		httputil.Logger(r, h.logger).Error("revoke session", "error", err)
	}
}
