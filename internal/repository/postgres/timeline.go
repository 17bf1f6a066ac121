package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
)

// PostgresTimelineRepository implements repositories.TimelineRepository
type PostgresTimelineRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTimelineRepository creates a new timeline repository
func NewTimelineRepository(config *RepositoryConfig) repositories.TimelineRepository {
	return &PostgresTimelineRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a timeline event
func (r *PostgresTimelineRepository) Create(ctx context.Context, event *models.TimelineEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, event_title, event_date, description, chapter_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Timeline)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		event.UserID,
		event.EventTitle,
		event.EventDate,
		event.Description,
		event.ChapterID,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chapter or user for timeline event: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create timeline event: %w", err)
	}

	return nil
}

// GetByID retrieves an event owned by userID, with its chapter title
func (r *PostgresTimelineRepository) GetByID(ctx context.Context, id, userID int64) (*models.TimelineEvent, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.user_id, t.event_title, t.event_date, t.description, t.chapter_id, t.created_at, c.title
		FROM %s t
		LEFT JOIN %s c ON c.id = t.chapter_id
		WHERE t.id = $1 AND t.user_id = $2
	`, r.tables.Timeline, r.tables.Chapters)

	var e models.TimelineEvent
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&e.ID,
		&e.UserID,
		&e.EventTitle,
		&e.EventDate,
		&e.Description,
		&e.ChapterID,
		&e.CreatedAt,
		&e.ChapterTitle,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("timeline event %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get timeline event %d: %w", id, err)
	}

	return &e, nil
}

// List returns events ordered by event_date compared byte by byte
func (r *PostgresTimelineRepository) List(ctx context.Context, userID int64) ([]models.TimelineEvent, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.user_id, t.event_title, t.event_date, t.description, t.chapter_id, t.created_at, c.title
		FROM %s t
		LEFT JOIN %s c ON c.id = t.chapter_id
		WHERE t.user_id = $1
		ORDER BY t.event_date COLLATE "C" ASC, t.id ASC
	`, r.tables.Timeline, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	events := []models.TimelineEvent{}
	for rows.Next() {
		var e models.TimelineEvent
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.EventTitle,
			&e.EventDate,
			&e.Description,
			&e.ChapterID,
			&e.CreatedAt,
			&e.ChapterTitle,
		); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline: %w", err)
	}

	return events, nil
}

// Update writes every editable field
func (r *PostgresTimelineRepository) Update(ctx context.Context, event *models.TimelineEvent) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET event_title = $1, event_date = $2, description = $3, chapter_id = $4
		WHERE id = $5 AND user_id = $6
	`, r.tables.Timeline)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		event.EventTitle,
		event.EventDate,
		event.Description,
		event.ChapterID,
		event.ID,
		event.UserID,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chapter for timeline event %d: %w", event.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update timeline event %d: %w", event.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("timeline event %d: %w", event.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes an event
func (r *PostgresTimelineRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Timeline)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete timeline event %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("timeline event %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAllForUser removes every event of a user
func (r *PostgresTimelineRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Timeline)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete timeline of user %d: %w", userID, err)
	}
	return nil
}
