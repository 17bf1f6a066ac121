package story

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"narreyes/internal/config"
	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
	"narreyes/internal/domain/services"
)

// relationshipService implements services.RelationshipService
type relationshipService struct {
	relationshipRepo repositories.RelationshipRepository
	authorizer       services.ResourceAuthorizer
	logger           *slog.Logger
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(
	relationshipRepo repositories.RelationshipRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.RelationshipService {
	return &relationshipService{
		relationshipRepo: relationshipRepo,
		authorizer:       authorizer,
		logger:           logger,
	}
}

func (s *relationshipService) ListRelationships(ctx context.Context, userID int64) ([]models.Relationship, error) {
	return s.relationshipRepo.List(ctx, userID)
}

func (s *relationshipService) CreateRelationship(ctx context.Context, userID int64, req *services.RelationshipRequest) (*models.Relationship, error) {
	if err := s.prepare(ctx, userID, req); err != nil {
		return nil, err
	}

	rel := &models.Relationship{UserID: userID}
	applyRelationship(rel, req)

	if err := s.relationshipRepo.Create(ctx, rel); err != nil {
		return nil, err
	}

	s.logger.Info("relationship created",
		"id", rel.ID,
		"user_id", userID,
		"character1_id", rel.Character1ID,
		"character2_id", rel.Character2ID,
	)
	return s.relationshipRepo.GetByID(ctx, rel.ID, userID)
}

func (s *relationshipService) GetRelationship(ctx context.Context, userID, id int64) (*models.Relationship, error) {
	return s.relationshipRepo.GetByID(ctx, id, userID)
}

func (s *relationshipService) UpdateRelationship(ctx context.Context, userID, id int64, req *services.RelationshipRequest) (*models.Relationship, error) {
	if err := s.prepare(ctx, userID, req); err != nil {
		return nil, err
	}

	rel, err := s.relationshipRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyRelationship(rel, req)

	if err := s.relationshipRepo.Update(ctx, rel); err != nil {
		return nil, err
	}

	s.logger.Info("relationship updated", "id", id, "user_id", userID)
	return s.relationshipRepo.GetByID(ctx, id, userID)
}

func (s *relationshipService) DeleteRelationship(ctx context.Context, userID, id int64) error {
	if err := s.relationshipRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("relationship deleted", "id", id, "user_id", userID)
	return nil
}

// prepare rejects self-relationships first, then checks that both characters
// belong to the caller.
func (s *relationshipService) prepare(ctx context.Context, userID int64, req *services.RelationshipRequest) error {
	req.RelationshipType = strings.TrimSpace(req.RelationshipType)

	if req.Character1ID == req.Character2ID {
		return fmt.Errorf("%w: a character cannot have a relationship with itself", domain.ErrInvalidOperation)
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Character1ID, validation.Required),
		validation.Field(&req.Character2ID, validation.Required),
		validation.Field(&req.RelationshipType, validation.Length(0, config.MaxRelationshipTypeLength)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	for _, id := range []int64{req.Character1ID, req.Character2ID} {
		if err := s.authorizer.CanAccessCharacter(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func applyRelationship(rel *models.Relationship, req *services.RelationshipRequest) {
	rel.Character1ID = req.Character1ID
	rel.Character2ID = req.Character2ID
	rel.RelationshipType = req.RelationshipType
	rel.Description = req.Description
}
