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

// timelineService implements services.TimelineService
type timelineService struct {
	timelineRepo repositories.TimelineRepository
	authorizer   services.ResourceAuthorizer
	logger       *slog.Logger
}

// NewTimelineService creates a new timeline service
func NewTimelineService(
	timelineRepo repositories.TimelineRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.TimelineService {
	return &timelineService{
		timelineRepo: timelineRepo,
		authorizer:   authorizer,
		logger:       logger,
	}
}

func (s *timelineService) ListEvents(ctx context.Context, userID int64) ([]models.TimelineEvent, error) {
	return s.timelineRepo.List(ctx, userID)
}

func (s *timelineService) CreateEvent(ctx context.Context, userID int64, req *services.TimelineEventRequest) (*models.TimelineEvent, error) {
	if err := s.prepare(ctx, userID, req); err != nil {
		return nil, err
	}

	event := &models.TimelineEvent{UserID: userID}
	applyEvent(event, req)

	if err := s.timelineRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("timeline event created", "id", event.ID, "user_id", userID)
	return s.timelineRepo.GetByID(ctx, event.ID, userID)
}

func (s *timelineService) GetEvent(ctx context.Context, userID, id int64) (*models.TimelineEvent, error) {
	return s.timelineRepo.GetByID(ctx, id, userID)
}

func (s *timelineService) UpdateEvent(ctx context.Context, userID, id int64, req *services.TimelineEventRequest) (*models.TimelineEvent, error) {
	if err := s.prepare(ctx, userID, req); err != nil {
		return nil, err
	}

	event, err := s.timelineRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyEvent(event, req)

	if err := s.timelineRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("timeline event updated", "id", id, "user_id", userID)
	return s.timelineRepo.GetByID(ctx, id, userID)
}

func (s *timelineService) DeleteEvent(ctx context.Context, userID, id int64) error {
	if err := s.timelineRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("timeline event deleted", "id", id, "user_id", userID)
	return nil
}

// prepare normalizes and validates the request and checks the linked chapter
// belongs to the caller.
func (s *timelineService) prepare(ctx context.Context, userID int64, req *services.TimelineEventRequest) error {
	req.EventTitle = strings.TrimSpace(req.EventTitle)
	req.EventDate = strings.TrimSpace(req.EventDate)

	if err := validation.ValidateStruct(req,
		validation.Field(&req.EventTitle, validation.Required, validation.Length(1, config.MaxEventTitleLength)),
		validation.Field(&req.EventDate, validation.Length(0, config.MaxEventDateLength)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ChapterID != nil {
		if err := s.authorizer.CanAccessChapter(ctx, userID, *req.ChapterID); err != nil {
			return err
		}
	}
	return nil
}

func applyEvent(e *models.TimelineEvent, req *services.TimelineEventRequest) {
	e.EventTitle = req.EventTitle
	e.EventDate = req.EventDate
	e.Description = req.Description
	e.ChapterID = req.ChapterID
}
