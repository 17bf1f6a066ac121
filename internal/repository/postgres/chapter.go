package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
)

const chapterColumns = `id, user_id, title, chapter_number, content, word_count, status, created_at, updated_at`

// PostgresChapterRepository implements repositories.ChapterRepository
type PostgresChapterRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewChapterRepository creates a new chapter repository
func NewChapterRepository(config *RepositoryConfig) repositories.ChapterRepository {
	return &PostgresChapterRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a chapter
func (r *PostgresChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, chapter_number, content, word_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		chapter.UserID,
		chapter.Title,
		chapter.ChapterNumber,
		chapter.Content,
		chapter.WordCount,
		chapter.Status,
	).Scan(&chapter.ID, &chapter.CreatedAt, &chapter.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %d: %w", chapter.UserID, domain.ErrNotFound)
		}
		if IsPgCheckError(err) {
			return fmt.Errorf("%w: chapter fails a constraint: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("create chapter: %w", err)
	}

	return nil
}

// GetByID retrieves a chapter owned by userID
func (r *PostgresChapterRepository) GetByID(ctx context.Context, id, userID int64) (*models.Chapter, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, chapterColumns, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	chapter, err := scanChapter(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chapter %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chapter %d: %w", id, err)
	}

	return chapter, nil
}

// List returns chapters in reading order
func (r *PostgresChapterRepository) List(ctx context.Context, userID int64) ([]models.Chapter, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY chapter_number ASC, id ASC
	`, chapterColumns, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	chapters := []models.Chapter{}
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, *chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}

	return chapters, nil
}

// Update writes every editable field and stamps updated_at
func (r *PostgresChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, chapter_number = $2, content = $3, word_count = $4, status = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		chapter.Title,
		chapter.ChapterNumber,
		chapter.Content,
		chapter.WordCount,
		chapter.Status,
		chapter.ID,
		chapter.UserID,
	).Scan(&chapter.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("chapter %d: %w", chapter.ID, domain.ErrNotFound)
		}
		if IsPgCheckError(err) {
			return fmt.Errorf("%w: chapter fails a constraint: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("update chapter %d: %w", chapter.ID, err)
	}

	return nil
}

// Delete removes a chapter; linked timeline events keep existing unlinked
func (r *PostgresChapterRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete chapter %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("chapter %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAllForUser removes every chapter of a user
func (r *PostgresChapterRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Chapters)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete chapters of user %d: %w", userID, err)
	}
	return nil
}

func scanChapter(row pgx.Row) (*models.Chapter, error) {
	var c models.Chapter
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.ChapterNumber,
		&c.Content,
		&c.WordCount,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
