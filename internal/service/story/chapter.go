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
	"narreyes/internal/utils"
)

// chapterService implements services.ChapterService
type chapterService struct {
	chapterRepo repositories.ChapterRepository
	logger      *slog.Logger
}

// NewChapterService creates a new chapter service
func NewChapterService(chapterRepo repositories.ChapterRepository, logger *slog.Logger) services.ChapterService {
	return &chapterService{
		chapterRepo: chapterRepo,
		logger:      logger,
	}
}

func (s *chapterService) ListChapters(ctx context.Context, userID int64) ([]models.Chapter, error) {
	return s.chapterRepo.List(ctx, userID)
}

func (s *chapterService) CreateChapter(ctx context.Context, userID int64, req *services.ChapterRequest) (*models.Chapter, error) {
	normalizeChapter(req)
	if err := validateChapter(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	chapter := &models.Chapter{UserID: userID}
	applyChapter(chapter, req)

	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		return nil, err
	}

	s.logger.Info("chapter created",
		"id", chapter.ID,
		"user_id", userID,
		"word_count", chapter.WordCount,
	)
	return chapter, nil
}

func (s *chapterService) GetChapter(ctx context.Context, userID, id int64) (*models.Chapter, error) {
	return s.chapterRepo.GetByID(ctx, id, userID)
}

func (s *chapterService) UpdateChapter(ctx context.Context, userID, id int64, req *services.ChapterRequest) (*models.Chapter, error) {
	normalizeChapter(req)
	if err := validateChapter(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	chapter, err := s.chapterRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyChapter(chapter, req)

	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		return nil, err
	}

	s.logger.Info("chapter updated",
		"id", id,
		"user_id", userID,
		"word_count", chapter.WordCount,
	)
	return chapter, nil
}

func (s *chapterService) DeleteChapter(ctx context.Context, userID, id int64) error {
	if err := s.chapterRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("chapter deleted", "id", id, "user_id", userID)
	return nil
}

func normalizeChapter(req *services.ChapterRequest) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Status == "" {
		req.Status = models.ChapterStatusDraft
	}
}

// applyChapter copies request fields and derives the word count from content
func applyChapter(c *models.Chapter, req *services.ChapterRequest) {
	c.Title = req.Title
	c.ChapterNumber = req.ChapterNumber
	c.Content = req.Content
	c.WordCount = utils.CountWords(req.Content)
	c.Status = req.Status
}

func validateChapter(req *services.ChapterRequest) error {
	statuses := make([]interface{}, len(models.ChapterStatuses))
	for i, st := range models.ChapterStatuses {
		statuses[i] = st
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxChapterTitleLength)),
		validation.Field(&req.ChapterNumber, validation.Required, validation.Min(1)),
		validation.Field(&req.Status, validation.In(statuses...)),
	)
}
