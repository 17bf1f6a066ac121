package repositories

import (
	"context"

	"narreyes/internal/domain/models"
)

// Every method below is scoped by userID. A row owned by someone else is
// reported exactly like a missing row: domain.ErrNotFound.

// CharacterRepository defines data access operations for characters
type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByID(ctx context.Context, id, userID int64) (*models.Character, error)

	// List returns characters newest first
	List(ctx context.Context, userID int64) ([]models.Character, error)

	Update(ctx context.Context, character *models.Character) error

	// Delete removes the character; relationships that reference it go with it
	Delete(ctx context.Context, id, userID int64) error

	DeleteAllForUser(ctx context.Context, userID int64) error
}

// ChapterRepository defines data access operations for chapters
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id, userID int64) (*models.Chapter, error)

	// List returns chapters ordered by chapter number
	List(ctx context.Context, userID int64) ([]models.Chapter, error)

	// Update writes all mutable fields and fills UpdatedAt
	Update(ctx context.Context, chapter *models.Chapter) error

	// Delete removes the chapter; timeline events pointing at it keep existing
	// with a NULL chapter_id
	Delete(ctx context.Context, id, userID int64) error

	DeleteAllForUser(ctx context.Context, userID int64) error
}

// TimelineRepository defines data access operations for timeline events
type TimelineRepository interface {
	Create(ctx context.Context, event *models.TimelineEvent) error
	GetByID(ctx context.Context, id, userID int64) (*models.TimelineEvent, error)

	// List returns events with their chapter title attached, ordered by
	// event_date as a plain string comparison
	List(ctx context.Context, userID int64) ([]models.TimelineEvent, error)

	Update(ctx context.Context, event *models.TimelineEvent) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// RelationshipRepository defines data access operations for character relationships
type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.Relationship) error
	GetByID(ctx context.Context, id, userID int64) (*models.Relationship, error)

	// List returns relationships with both character names, newest first
	List(ctx context.Context, userID int64) ([]models.Relationship, error)

	Update(ctx context.Context, rel *models.Relationship) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}
