package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
)

// PostgresRelationshipRepository implements repositories.RelationshipRepository
type PostgresRelationshipRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(config *RepositoryConfig) repositories.RelationshipRepository {
	return &PostgresRelationshipRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a relationship
func (r *PostgresRelationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, character1_id, character2_id, relationship_type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Relationships)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		rel.UserID,
		rel.Character1ID,
		rel.Character2ID,
		rel.RelationshipType,
		rel.Description,
	).Scan(&rel.ID, &rel.CreatedAt)
	if err != nil {
		return relationshipWriteError(err, "create relationship")
	}

	return nil
}

// GetByID retrieves a relationship owned by userID, with both character names
func (r *PostgresRelationshipRepository) GetByID(ctx context.Context, id, userID int64) (*models.Relationship, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.user_id, r.character1_id, r.character2_id, r.relationship_type, r.description, r.created_at,
			c1.name, c2.name
		FROM %s r
		JOIN %s c1 ON c1.id = r.character1_id
		JOIN %s c2 ON c2.id = r.character2_id
		WHERE r.id = $1 AND r.user_id = $2
	`, r.tables.Relationships, r.tables.Characters, r.tables.Characters)

	var rel models.Relationship
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&rel.ID,
		&rel.UserID,
		&rel.Character1ID,
		&rel.Character2ID,
		&rel.RelationshipType,
		&rel.Description,
		&rel.CreatedAt,
		&rel.Character1Name,
		&rel.Character2Name,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("relationship %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get relationship %d: %w", id, err)
	}

	return &rel, nil
}

// List returns relationships newest first
func (r *PostgresRelationshipRepository) List(ctx context.Context, userID int64) ([]models.Relationship, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.user_id, r.character1_id, r.character2_id, r.relationship_type, r.description, r.created_at,
			c1.name, c2.name
		FROM %s r
		JOIN %s c1 ON c1.id = r.character1_id
		JOIN %s c2 ON c2.id = r.character2_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, r.tables.Relationships, r.tables.Characters, r.tables.Characters)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	rels := []models.Relationship{}
	for rows.Next() {
		var rel models.Relationship
		if err := rows.Scan(
			&rel.ID,
			&rel.UserID,
			&rel.Character1ID,
			&rel.Character2ID,
			&rel.RelationshipType,
			&rel.Description,
			&rel.CreatedAt,
			&rel.Character1Name,
			&rel.Character2Name,
		); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}

	return rels, nil
}

// Update writes every editable field
func (r *PostgresRelationshipRepository) Update(ctx context.Context, rel *models.Relationship) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET character1_id = $1, character2_id = $2, relationship_type = $3, description = $4
		WHERE id = $5 AND user_id = $6
	`, r.tables.Relationships)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		rel.Character1ID,
		rel.Character2ID,
		rel.RelationshipType,
		rel.Description,
		rel.ID,
		rel.UserID,
	)
	if err != nil {
		return relationshipWriteError(err, fmt.Sprintf("update relationship %d", rel.ID))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("relationship %d: %w", rel.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a relationship
func (r *PostgresRelationshipRepository) Delete(ctx context.Context, id, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Relationships)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete relationship %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("relationship %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAllForUser removes every relationship of a user
func (r *PostgresRelationshipRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Relationships)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete relationships of user %d: %w", userID, err)
	}
	return nil
}

func relationshipWriteError(err error, op string) error {
	switch {
	case IsPgCheckError(err):
		return fmt.Errorf("%w: a character cannot have a relationship with itself", domain.ErrInvalidOperation)
	case IsPgForeignKeyError(err):
		return fmt.Errorf("character for relationship: %w", domain.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
