package handler

import (
	"log/slog"
	"net/http"

	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
)

// ChapterHandler handles chapter HTTP requests
type ChapterHandler struct {
	chapterService services.ChapterService
	logger         *slog.Logger
}

// NewChapterHandler creates a new chapter handler
func NewChapterHandler(chapterService services.ChapterService, logger *slog.Logger) *ChapterHandler {
	return &ChapterHandler{
		chapterService: chapterService,
		logger:         logger,
	}
}

// ListChapters returns the caller's chapters in chapter order
// GET /api/chapters
func (h *ChapterHandler) ListChapters(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	chapters, err := h.chapterService.ListChapters(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chapters)
}

// CreateChapter creates a chapter; word_count is derived from content
// POST /api/chapters
func (h *ChapterHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.ChapterRequest
	if !parseBody(w, r, &req) {
		return
	}

	chapter, err := h.chapterService.CreateChapter(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chapter)
}

// GetChapter returns one chapter with its content
// GET /api/chapters/{id}
func (h *ChapterHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	chapter, err := h.chapterService.GetChapter(r.Context(), id.UserID, chapterID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chapter)
}

// UpdateChapter replaces a chapter's fields
// PUT /api/chapters/{id}
func (h *ChapterHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.ChapterRequest
	if !parseBody(w, r, &req) {
		return
	}

	chapter, err := h.chapterService.UpdateChapter(r.Context(), id.UserID, chapterID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chapter)
}

// DeleteChapter deletes a chapter; linked timeline events are kept
// DELETE /api/chapters/{id}
func (h *ChapterHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	chapterID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.chapterService.DeleteChapter(r.Context(), id.UserID, chapterID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Chapter deleted successfully!"})
}
