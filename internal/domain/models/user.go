package models

import "time"

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity returns the session identity for this user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

// WritingStats aggregates a user's content for the dashboard and profile pages.
type WritingStats struct {
	Characters    int   `json:"characters"`
	Chapters      int   `json:"chapters"`
	TimelineItems int   `json:"timeline"`
	Relationships int   `json:"relationships"`
	Words         int64 `json:"words"`
}

// Profile is a user together with their statistics.
type Profile struct {
	User  *User         `json:"user"`
	Stats *WritingStats `json:"stats"`
}
