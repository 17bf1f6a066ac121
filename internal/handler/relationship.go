package handler

import (
	"log/slog"
	"net/http"

	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
)

// RelationshipHandler handles character relationship HTTP requests
type RelationshipHandler struct {
	relationshipService services.RelationshipService
	logger              *slog.Logger
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(relationshipService services.RelationshipService, logger *slog.Logger) *RelationshipHandler {
	return &RelationshipHandler{
		relationshipService: relationshipService,
		logger:              logger,
	}
}

// ListRelationships returns relationships with both character names
// GET /api/relationships
func (h *RelationshipHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	rels, err := h.relationshipService.ListRelationships(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rels)
}

// CreateRelationship links two of the caller's characters
// POST /api/relationships
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.RelationshipRequest
	if !parseBody(w, r, &req) {
		return
	}

	rel, err := h.relationshipService.CreateRelationship(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rel)
}

// GetRelationship returns one relationship
// GET /api/relationships/{id}
func (h *RelationshipHandler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	relID, ok := pathID(w, r)
	if !ok {
		return
	}

	rel, err := h.relationshipService.GetRelationship(r.Context(), id.UserID, relID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rel)
}

// UpdateRelationship replaces a relationship's fields
// PUT /api/relationships/{id}
func (h *RelationshipHandler) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	relID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.RelationshipRequest
	if !parseBody(w, r, &req) {
		return
	}

	rel, err := h.relationshipService.UpdateRelationship(r.Context(), id.UserID, relID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rel)
}

// DeleteRelationship deletes a relationship
// DELETE /api/relationships/{id}
func (h *RelationshipHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	relID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.relationshipService.DeleteRelationship(r.Context(), id.UserID, relID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Relationship deleted successfully!"})
}
