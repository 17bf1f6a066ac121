package services

import (
	"context"

	"narreyes/internal/domain/models"
)

// All story services take the caller's user id first. Rows owned by another
// user behave as missing (domain.ErrNotFound).

// CharacterService manages a writer's cast
type CharacterService interface {
	ListCharacters(ctx context.Context, userID int64) ([]models.Character, error)
	CreateCharacter(ctx context.Context, userID int64, req *CharacterRequest) (*models.Character, error)
	GetCharacter(ctx context.Context, userID, id int64) (*models.Character, error)
	UpdateCharacter(ctx context.Context, userID, id int64, req *CharacterRequest) (*models.Character, error)
	DeleteCharacter(ctx context.Context, userID, id int64) error
}

// ChapterService manages manuscript chapters
type ChapterService interface {
	ListChapters(ctx context.Context, userID int64) ([]models.Chapter, error)
	CreateChapter(ctx context.Context, userID int64, req *ChapterRequest) (*models.Chapter, error)
	GetChapter(ctx context.Context, userID, id int64) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, userID, id int64, req *ChapterRequest) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, userID, id int64) error
}

// TimelineService manages story timeline events
type TimelineService interface {
	ListEvents(ctx context.Context, userID int64) ([]models.TimelineEvent, error)
	CreateEvent(ctx context.Context, userID int64, req *TimelineEventRequest) (*models.TimelineEvent, error)
	GetEvent(ctx context.Context, userID, id int64) (*models.TimelineEvent, error)
	UpdateEvent(ctx context.Context, userID, id int64, req *TimelineEventRequest) (*models.TimelineEvent, error)
	DeleteEvent(ctx context.Context, userID, id int64) error
}

// RelationshipService manages links between two characters
type RelationshipService interface {
	ListRelationships(ctx context.Context, userID int64) ([]models.Relationship, error)
	CreateRelationship(ctx context.Context, userID int64, req *RelationshipRequest) (*models.Relationship, error)
	GetRelationship(ctx context.Context, userID, id int64) (*models.Relationship, error)
	UpdateRelationship(ctx context.Context, userID, id int64, req *RelationshipRequest) (*models.Relationship, error)
	DeleteRelationship(ctx context.Context, userID, id int64) error
}

// CharacterRequest is the create/update body for a character
type CharacterRequest struct {
	Name        string `json:"name"`
	Age         *int   `json:"age"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Background  string `json:"background"`
}

// ChapterRequest is the create/update body for a chapter.
// Status defaults to draft when empty.
type ChapterRequest struct {
	Title         string               `json:"title"`
	ChapterNumber int                  `json:"chapter_number"`
	Content       string               `json:"content"`
	Status        models.ChapterStatus `json:"status"`
}

// TimelineEventRequest is the create/update body for a timeline event
type TimelineEventRequest struct {
	EventTitle  string `json:"event_title"`
	EventDate   string `json:"event_date"`
	Description string `json:"description"`
	ChapterID   *int64 `json:"chapter_id"`
}

// RelationshipRequest is the create/update body for a relationship
type RelationshipRequest struct {
	Character1ID     int64  `json:"character1_id"`
	Character2ID     int64  `json:"character2_id"`
	RelationshipType string `json:"relationship_type"`
	Description      string `json:"description"`
}
