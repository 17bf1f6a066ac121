package handler

import (
	"log/slog"
	"net/http"

	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
)

// AccountHandler serves the dashboard and the profile pages
type AccountHandler struct {
	accounts    services.AccountService
	credentials services.CredentialService
	auth        *AuthHandler
	logger      *slog.Logger
}

// NewAccountHandler creates a new account handler. auth provides cookie
// re-issue after identity changes.
func NewAccountHandler(
	accounts services.AccountService,
	credentials services.CredentialService,
	auth *AuthHandler,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		credentials: credentials,
		auth:        auth,
		logger:      logger,
	}
}

// Dashboard returns the caller's writing statistics
// GET /api/dashboard
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	stats, err := h.accounts.Dashboard(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, stats)
}

// GetProfile returns the account with its statistics
// GET /api/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	profile, err := h.accounts.Profile(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes username and email, then re-issues the session
// cookie so it carries the new username
// PATCH /api/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.UpdateIdentityRequest
	if !parseBody(w, r, &req) {
		return
	}

	user, err := h.credentials.UpdateIdentity(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	if !h.auth.rotateSession(w, r, user.Identity()) {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, userResponse{User: user, Message: "Profile updated successfully!"})
}

// ChangePassword replaces the password after checking the current one
// POST /api/profile/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.ChangePasswordRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.credentials.ChangePassword(r.Context(), id.UserID, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully!"})
}

// DeleteAccount removes the account and everything in it, then ends the session
// DELETE /api/profile
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.DeleteAccountRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), id, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.auth.cookies.ClearCookie(w)
	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Your account has been deleted."})
}
