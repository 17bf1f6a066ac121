package services

import (
	"context"

	"narreyes/internal/domain/models"
)

// AccountService serves the profile and dashboard pages and account removal.
type AccountService interface {
	Profile(ctx context.Context, id models.Identity) (*models.Profile, error)
	Dashboard(ctx context.Context, id models.Identity) (*models.WritingStats, error)

	// DeleteAccount removes the user and everything they own in one transaction,
	// then invalidates all of their sessions.
	DeleteAccount(ctx context.Context, id models.Identity, req *DeleteAccountRequest) error
}

// DeleteAccountRequest is the body of DELETE /api/profile
type DeleteAccountRequest struct {
	Password string `json:"password"`
}
