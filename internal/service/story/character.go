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

// characterService implements services.CharacterService
type characterService struct {
	characterRepo repositories.CharacterRepository
	logger        *slog.Logger
}

// NewCharacterService creates a new character service
func NewCharacterService(characterRepo repositories.CharacterRepository, logger *slog.Logger) services.CharacterService {
	return &characterService{
		characterRepo: characterRepo,
		logger:        logger,
	}
}

func (s *characterService) ListCharacters(ctx context.Context, userID int64) ([]models.Character, error) {
	return s.characterRepo.List(ctx, userID)
}

func (s *characterService) CreateCharacter(ctx context.Context, userID int64, req *services.CharacterRequest) (*models.Character, error) {
	normalizeCharacter(req)
	if err := validateCharacter(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	character := &models.Character{UserID: userID}
	applyCharacter(character, req)

	if err := s.characterRepo.Create(ctx, character); err != nil {
		return nil, err
	}

	s.logger.Info("character created", "id", character.ID, "user_id", userID)
	return character, nil
}

func (s *characterService) GetCharacter(ctx context.Context, userID, id int64) (*models.Character, error) {
	return s.characterRepo.GetByID(ctx, id, userID)
}

func (s *characterService) UpdateCharacter(ctx context.Context, userID, id int64, req *services.CharacterRequest) (*models.Character, error) {
	normalizeCharacter(req)
	if err := validateCharacter(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	character, err := s.characterRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyCharacter(character, req)

	if err := s.characterRepo.Update(ctx, character); err != nil {
		return nil, err
	}

	s.logger.Info("character updated", "id", id, "user_id", userID)
	return character, nil
}

func (s *characterService) DeleteCharacter(ctx context.Context, userID, id int64) error {
	if err := s.characterRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("character deleted", "id", id, "user_id", userID)
	return nil
}

func normalizeCharacter(req *services.CharacterRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)
}

func applyCharacter(c *models.Character, req *services.CharacterRequest) {
	c.Name = req.Name
	c.Age = req.Age
	c.Role = req.Role
	c.Description = req.Description
	c.Personality = req.Personality
	c.Background = req.Background
}

func validateCharacter(req *services.CharacterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxCharacterNameLength)),
		validation.Field(&req.Age, validation.Min(0), validation.Max(config.MaxCharacterAge)),
		validation.Field(&req.Role, validation.Length(0, config.MaxCharacterRoleLength)),
	)
}
