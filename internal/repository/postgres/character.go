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

const characterColumns = `id, user_id, name, age, role, description, personality, background, created_at`

// PostgresCharacterRepository implements repositories.CharacterRepository
type PostgresCharacterRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(config *RepositoryConfig) repositories.CharacterRepository {
	return &PostgresCharacterRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a character
func (r *PostgresCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, age, role, description, personality, background)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		character.UserID,
		character.Name,
		character.Age,
		character.Role,
		character.Description,
		character.Personality,
		character.Background,
	).Scan(&character.ID, &character.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %d: %w", character.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create character: %w", err)
	}

	return nil
}

// GetByID retrieves a character owned by userID
func (r *PostgresCharacterRepository) GetByID(ctx context.Context, id, userID int64) (*models.Character, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, characterColumns, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	character, err := scanCharacter(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("character %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}

	return character, nil
}

// List returns the user's characters, newest first
func (r *PostgresCharacterRepository) List(ctx context.Context, userID int64) ([]models.Character, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, characterColumns, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	characters := []models.Character{}
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		characters = append(characters, *character)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}

	return characters, nil
}

// Update writes every editable field
func (r *PostgresCharacterRepository) Update(ctx context.Context, character *models.Character) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, age = $2, role = $3, description = $4, personality = $5, background = $6
		WHERE id = $7 AND user_id = $8
	`, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		character.Name,
		character.Age,
		character.Role,
		character.Description,
		character.Personality,
		character.Background,
		character.ID,
		character.UserID,
	)
	if err != nil {
		return fmt.Errorf("update character %d: %w", character.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("character %d: %w", character.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a character; the schema cascades to its relationships
func (r *PostgresCharacterRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete character %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("character %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAllForUser removes every character of a user
func (r *PostgresCharacterRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete characters of user %d: %w", userID, err)
	}
	return nil
}

func scanCharacter(row pgx.Row) (*models.Character, error) {
	var c models.Character
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Age,
		&c.Role,
		&c.Description,
		&c.Personality,
		&c.Background,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
