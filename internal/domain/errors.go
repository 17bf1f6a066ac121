package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	// ErrValidation marks missing or malformed input (InvalidInput)
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a username/email collision (DuplicateIdentity)
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials marks a bad login or a bad current password
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotFound covers both missing rows and rows owned by another user
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation marks a well-formed request that breaks a domain rule
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnauthorized marks a missing or invalid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited marks a caller that exceeded its request quota
	ErrRateLimited = errors.New("too many requests")
)

// ConflictError represents an identity collision with details about the clashing field.
type ConflictError struct {
	Message string // Human-readable error message
	Field   string // "username", "email" or "" when unknown
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
