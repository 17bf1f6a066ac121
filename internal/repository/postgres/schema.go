package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates all tables and indexes that do not exist yet.
// Safe to run on every start-up.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, stmt := range schemaStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table for the configured prefix, children first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{
		tables.Relationships,
		tables.Timeline,
		tables.Chapters,
		tables.Characters,
		tables.Users,
	} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

func schemaStatements(t *TableNames) []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + t.Users + ` (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Characters + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			age INTEGER,
			role TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			personality TEXT NOT NULL DEFAULT '',
			background TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Chapters + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			chapter_number INTEGER NOT NULL CHECK (chapter_number > 0),
			content TEXT NOT NULL DEFAULT '',
			word_count INTEGER NOT NULL DEFAULT 0 CHECK (word_count >= 0),
			status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'in_progress', 'completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Timeline + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			event_title TEXT NOT NULL,
			event_date TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			chapter_id BIGINT REFERENCES ` + t.Chapters + `(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Relationships + ` (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			character1_id BIGINT NOT NULL REFERENCES ` + t.Characters + `(id) ON DELETE CASCADE,
			character2_id BIGINT NOT NULL REFERENCES ` + t.Characters + `(id) ON DELETE CASCADE,
			relationship_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (character1_id <> character2_id)
		)`,
	}

	indexes := []struct{ table, column string }{
		{t.Characters, "user_id"},
		{t.Chapters, "user_id"},
		{t.Timeline, "user_id"},
		{t.Timeline, "chapter_id"},
		{t.Relationships, "user_id"},
		{t.Relationships, "character1_id"},
		{t.Relationships, "character2_id"},
	}
	for _, idx := range indexes {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			idx.table, strings.TrimSuffix(idx.column, "_id"), idx.table, idx.column,
		))
	}

	return stmts
}
