package auth

import (
	"context"
	"errors"
	"fmt"

	"narreyes/internal/domain"
	"narreyes/internal/domain/repositories"
)

// OwnerBasedAuthorizer implements services.ResourceAuthorizer with ownership
// checks: a user may reference a row only if the row's user_id is theirs.
type OwnerBasedAuthorizer struct {
	characterRepo repositories.CharacterRepository
	chapterRepo   repositories.ChapterRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	characterRepo repositories.CharacterRepository,
	chapterRepo repositories.ChapterRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		characterRepo: characterRepo,
		chapterRepo:   chapterRepo,
	}
}

// CanAccessCharacter checks that the user owns the character
func (a *OwnerBasedAuthorizer) CanAccessCharacter(ctx context.Context, userID, characterID int64) error {
	// GetByID already filters by user_id
	if _, err := a.characterRepo.GetByID(ctx, characterID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("character %d: %w", characterID, domain.ErrNotFound)
		}
		return fmt.Errorf("check character access: %w", err)
	}
	return nil
}

// CanAccessChapter checks that the user owns the chapter
func (a *OwnerBasedAuthorizer) CanAccessChapter(ctx context.Context, userID, chapterID int64) error {
	if _, err := a.chapterRepo.GetByID(ctx, chapterID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("chapter %d: %w", chapterID, domain.ErrNotFound)
		}
		return fmt.Errorf("check chapter access: %w", err)
	}
	return nil
}
