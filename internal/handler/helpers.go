package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/generation"
	"narreyes/internal/httputil"
)

// messageResponse carries the user-facing confirmation of an action
type messageResponse struct {
	Message string `json:"message"`
}

// userResponse pairs an account with a confirmation message
type userResponse struct {
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

// handleError converts domain and generation errors to problem responses.
// Anything unrecognized is logged with the request id and reported as a 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError
	var providerErr *generation.ProviderError
	var transportErr *generation.TransportError

	switch {
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"field": conflictErr.Field,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidOperation):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "please log in first")
	case errors.Is(err, domain.ErrRateLimited):
		httputil.RespondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, generation.ErrServiceUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "model is loading, please wait 30-60 seconds and try again")
	case errors.Is(err, generation.ErrQuotaExhausted):
		httputil.RespondError(w, http.StatusPaymentRequired, "generation credits exhausted, please use free models")
	case errors.Is(err, generation.ErrProviderUnauthorized):
		httputil.RespondError(w, http.StatusBadGateway, "the generation service rejected the configured API key")
	case errors.As(err, &providerErr):
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, providerErr.Error(), map[string]any{
			"provider_status": providerErr.StatusCode,
		})
	case errors.As(err, &transportErr):
		httputil.RespondError(w, transportErr.StatusCode(), transportErr.Error())
	default:
		httputil.Logger(r, logger).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// identity returns the session identity set by RequireSession. A missing one
// means the route was registered without the middleware.
func identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := httputil.GetIdentity(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "please log in first")
	}
	return id, ok
}

// pathID parses {id} or answers 400
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// parseBody decodes the JSON body or answers 400
func parseBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
