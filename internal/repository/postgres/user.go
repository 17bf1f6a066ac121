package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
)

// PostgresUserRepository implements repositories.UserRepository
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return identityConflict(err)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	return r.scanOne(ctx, query, id, fmt.Sprintf("user %d", id))
}

// GetByUsername retrieves a user by exact username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, created_at
		FROM %s
		WHERE username = $1
	`, r.tables.Users)

	return r.scanOne(ctx, query, username, fmt.Sprintf("user %q", username))
}

func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, arg any, label string) (*models.User, error) {
	var user models.User
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s: %w", label, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", label, err)
	}

	return &user, nil
}

// UpdateIdentity changes username and email
func (r *PostgresUserRepository) UpdateIdentity(ctx context.Context, id int64, username, email string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET username = $1, email = $2
		WHERE id = $3
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, username, email, id)
	if err != nil {
		if IsPgDuplicateError(err) {
			return identityConflict(err)
		}
		return fmt.Errorf("update user %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdatePasswordHash replaces the stored hash
func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1 WHERE id = $2`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the user row
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetStats counts the user's content with scalar subqueries
func (r *PostgresUserRepository) GetStats(ctx context.Context, userID int64) (*models.WritingStats, error) {
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE user_id = $1),
			(SELECT COUNT(*) FROM %s WHERE user_id = $1),
			(SELECT COUNT(*) FROM %s WHERE user_id = $1),
			(SELECT COUNT(*) FROM %s WHERE user_id = $1),
			(SELECT COALESCE(SUM(word_count), 0) FROM %s WHERE user_id = $1)
	`, r.tables.Characters, r.tables.Chapters, r.tables.Timeline, r.tables.Relationships, r.tables.Chapters)

	var stats models.WritingStats
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(
		&stats.Characters,
		&stats.Chapters,
		&stats.TimelineItems,
		&stats.Relationships,
		&stats.Words,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats for user %d: %w", userID, err)
	}

	return &stats, nil
}

func identityConflict(err error) error {
	field := duplicateField(err)
	msg := "username or email already exists"
	if field != "" {
		msg = field + " already exists"
	}
	return &domain.ConflictError{Message: msg, Field: field}
}
