package handler

import (
	"context"
	"log/slog"
	"net/http"

	"narreyes/internal/generation"
	"narreyes/internal/httputil"
)

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, req *generation.Request) (*generation.Result, error)
}

// GenerateHandler relays prompts to the text-generation provider
type GenerateHandler struct {
	generator Generator
	logger    *slog.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator Generator, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		logger:    logger,
	}
}

// Generate runs one generation call and returns its text
// POST /api/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}

	var req generation.Request
	if !parseBody(w, r, &req) {
		return
	}

	result, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
