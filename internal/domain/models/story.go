package models

import "time"

// Character is a person in the user's story.
type Character struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Age         *int      `json:"age,omitempty" db:"age"`
	Role        string    `json:"role" db:"role"`
	Description string    `json:"description" db:"description"`
	Personality string    `json:"personality" db:"personality"`
	Background  string    `json:"background" db:"background"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ChapterStatus tracks how far along a chapter is.
type ChapterStatus string

const (
	ChapterStatusDraft      ChapterStatus = "draft"
	ChapterStatusInProgress ChapterStatus = "in_progress"
	ChapterStatusCompleted  ChapterStatus = "completed"
)

// ChapterStatuses lists every accepted chapter status.
var ChapterStatuses = []ChapterStatus{
	ChapterStatusDraft,
	ChapterStatusInProgress,
	ChapterStatusCompleted,
}

// Chapter is a numbered unit of manuscript text.
// WordCount is always derived from Content and never accepted from clients.
type Chapter struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	Title         string        `json:"title" db:"title"`
	ChapterNumber int           `json:"chapter_number" db:"chapter_number"`
	Content       string        `json:"content" db:"content"`
	WordCount     int           `json:"word_count" db:"word_count"`
	Status        ChapterStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// TimelineEvent is a dated story event, optionally pinned to a chapter.
type TimelineEvent struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	EventTitle  string    `json:"event_title" db:"event_title"`
	EventDate   string    `json:"event_date" db:"event_date"`
	Description string    `json:"description" db:"description"`
	ChapterID   *int64    `json:"chapter_id" db:"chapter_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// ChapterTitle is filled by list queries (left join); nil when no chapter is linked.
	ChapterTitle *string `json:"chapter_title" db:"chapter_title"`
}

// Relationship links two distinct characters of the same user.
type Relationship struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Character1ID     int64     `json:"character1_id" db:"character1_id"`
	Character2ID     int64     `json:"character2_id" db:"character2_id"`
	RelationshipType string    `json:"relationship_type" db:"relationship_type"`
	Description      string    `json:"description" db:"description"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	// Character names are filled by list queries (inner join).
	Character1Name string `json:"character1_name,omitempty" db:"character1_name"`
	Character2Name string `json:"character2_name,omitempty" db:"character2_name"`
}
