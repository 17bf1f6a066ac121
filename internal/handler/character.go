package handler

import (
	"log/slog"
	"net/http"

	"narreyes/internal/domain/services"
	"narreyes/internal/httputil"
)

// CharacterHandler handles character HTTP requests
type CharacterHandler struct {
	characterService services.CharacterService
	logger           *slog.Logger
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(characterService services.CharacterService, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		characterService: characterService,
		logger:           logger,
	}
}

// ListCharacters returns the caller's characters, newest first
// GET /api/characters
func (h *CharacterHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	characters, err := h.characterService.ListCharacters(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, characters)
}

// CreateCharacter creates a character
// POST /api/characters
func (h *CharacterHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req services.CharacterRequest
	if !parseBody(w, r, &req) {
		return
	}

	character, err := h.characterService.CreateCharacter(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, character)
}

// GetCharacter returns one character
// GET /api/characters/{id}
func (h *CharacterHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	characterID, ok := pathID(w, r)
	if !ok {
		return
	}

	character, err := h.characterService.GetCharacter(r.Context(), id.UserID, characterID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, character)
}

// UpdateCharacter replaces a character's fields
// PUT /api/characters/{id}
func (h *CharacterHandler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	characterID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.CharacterRequest
	if !parseBody(w, r, &req) {
		return
	}

	character, err := h.characterService.UpdateCharacter(r.Context(), id.UserID, characterID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, character)
}

// DeleteCharacter deletes a character and its relationships
// DELETE /api/characters/{id}
func (h *CharacterHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	characterID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.characterService.DeleteCharacter(r.Context(), id.UserID, characterID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: "Character deleted successfully!"})
}
