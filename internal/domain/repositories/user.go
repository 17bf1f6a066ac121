package repositories

import (
	"context"

	"narreyes/internal/domain/models"
)

// UserRepository defines data access operations for user accounts
type UserRepository interface {
	// Create inserts a user and fills ID and CreatedAt.
	// Returns *domain.ConflictError when the username or email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by exact username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateIdentity changes username and email.
	// Returns *domain.ConflictError when either collides with a different user.
	UpdateIdentity(ctx context.Context, id int64, username, email string) error

	// UpdatePasswordHash replaces the stored hash
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error

	// Delete removes the user row
	Delete(ctx context.Context, id int64) error

	// GetStats counts the user's content in one round trip
	GetStats(ctx context.Context, userID int64) (*models.WritingStats, error)
}
