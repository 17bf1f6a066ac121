package services

import (
	"context"

	"narreyes/internal/domain/models"
)

// CredentialService owns user accounts and password verification.
type CredentialService interface {
	// Register creates an account. Fails with domain.ErrValidation for bad input
	// and *domain.ConflictError when the username or email is taken.
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)

	// Authenticate returns the matching user or domain.ErrInvalidCredentials.
	// Unknown usernames and wrong passwords are indistinguishable.
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)

	// GetUser loads the account behind an identity
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// ChangePassword verifies the current password before storing the new hash
	ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error

	// UpdateIdentity changes username and email; unchanged values are allowed
	UpdateIdentity(ctx context.Context, userID int64, req *UpdateIdentityRequest) (*models.User, error)

	// VerifyPassword checks a password against the stored hash of userID
	VerifyPassword(ctx context.Context, userID int64, password string) error
}

// ResourceAuthorizer checks that a referenced row belongs to the caller before
// another row is allowed to point at it. Foreign rows report domain.ErrNotFound,
// the same as missing ones.
type ResourceAuthorizer interface {
	CanAccessCharacter(ctx context.Context, userID, characterID int64) error
	CanAccessChapter(ctx context.Context, userID, chapterID int64) error
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of POST /api/profile/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdateIdentityRequest is the body of PATCH /api/profile
type UpdateIdentityRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
