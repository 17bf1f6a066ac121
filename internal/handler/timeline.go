package handler

import (
	"log/slog"
	"net/http"

	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
)

// TimelineHandler handles timeline event HTTP requests
type TimelineHandler struct {
	timelineService services.TimelineService
	logger          *slog.Logger
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(timelineService services.TimelineService, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		logger:          logger,
	}
}

// ListEvents returns the caller's timeline ordered by event date
// GET /api/timeline
func (h *TimelineHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	events, err := h.timelineService.ListEvents(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, events)
}

// CreateEvent creates a timeline event
// POST /api/timeline
func (h *TimelineHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.TimelineEventRequest
	if !parseBody(w, r, &req) {
		return
	}

	event, err := h.timelineService.CreateEvent(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, event)
}

// GetEvent returns one timeline event
// GET /api/timeline/{id}
func (h *TimelineHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := h.timelineService.GetEvent(r.Context(), id.UserID, eventID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, event)
}

// UpdateEvent replaces a timeline event's fields
// PUT /api/timeline/{id}
func (h *TimelineHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.TimelineEventRequest
	if !parseBody(w, r, &req) {
		return
	}

	event, err := h.timelineService.UpdateEvent(r.Context(), id.UserID, eventID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, event)
}

// DeleteEvent deletes a timeline event
// DELETE /api/timeline/{id}
func (h *TimelineHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.timelineService.DeleteEvent(r.Context(), id.UserID, eventID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Event deleted successfully!"})
}
