package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"narreyes/internal/middleware"
	"narreyes/internal/ratelimit"
)

// Handlers groups every route handler
type Handlers struct {
	Auth          *AuthHandler
	Account       *AccountHandler
	Characters    *CharacterHandler
	Chapters      *ChapterHandler
	Timeline      *TimelineHandler
	Relationships *RelationshipHandler
	Generate      *GenerateHandler
	Health        *HealthHandler
}

// RouterConfig carries what the middleware chain needs
type RouterConfig struct {
	Sessions       middleware.SessionAuthenticator
	Tokens         middleware.TokenSource
	AuthLimiter    ratelimit.Limiter // nil disables login/register limiting
	TrustedProxies *middleware.TrustedProxies
	CORSOrigins    []string
	Logger         *slog.Logger
}

// NewRouter registers all routes and wraps them in the middleware chain:
// CORS, security headers, request id, request log, metrics, recovery.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	limited := func(f http.HandlerFunc) http.Handler { return f }
	if cfg.AuthLimiter != nil {
		rl := middleware.RateLimit(cfg.AuthLimiter, cfg.TrustedProxies, cfg.Logger)
		limited = func(f http.HandlerFunc) http.Handler { return rl(f) }
	}
	mux.Handle("POST /api/auth/register", limited(h.Auth.Register))
	mux.Handle("POST /api/auth/login", limited(h.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	// Session required
	requireSession := middleware.RequireSession(cfg.Sessions, cfg.Tokens, cfg.Logger)
	protected := func(pattern string, f http.HandlerFunc) {
		mux.Handle(pattern, requireSession(f))
	}

	protected("GET /api/dashboard", h.Account.Dashboard)
	protected("GET /api/profile", h.Account.GetProfile)
	protected("PATCH /api/profile", h.Account.UpdateProfile)
	protected("POST /api/profile/password", h.Account.ChangePassword)
	protected("DELETE /api/profile", h.Account.DeleteAccount)

	protected("GET /api/characters", h.Characters.ListCharacters)
	protected("POST /api/characters", h.Characters.CreateCharacter)
	protected("GET /api/characters/{id}", h.Characters.GetCharacter)
	protected("PUT /api/characters/{id}", h.Characters.UpdateCharacter)
	protected("DELETE /api/characters/{id}", h.Characters.DeleteCharacter)

	protected("GET /api/chapters", h.Chapters.ListChapters)
	protected("POST /api/chapters", h.Chapters.CreateChapter)
	protected("GET /api/chapters/{id}", h.Chapters.GetChapter)
	protected("PUT /api/chapters/{id}", h.Chapters.UpdateChapter)
	protected("DELETE /api/chapters/{id}", h.Chapters.DeleteChapter)

	protected("GET /api/timeline", h.Timeline.ListEvents)
	protected("POST /api/timeline", h.Timeline.CreateEvent)
	protected("GET /api/timeline/{id}", h.Timeline.GetEvent)
	protected("PUT /api/timeline/{id}", h.Timeline.UpdateEvent)
	protected("DELETE /api/timeline/{id}", h.Timeline.DeleteEvent)

	protected("GET /api/relationships", h.Relationships.ListRelationships)
	protected("POST /api/relationships", h.Relationships.CreateRelationship)
	protected("GET /api/relationships/{id}", h.Relationships.GetRelationship)
	protected("PUT /api/relationships/{id}", h.Relationships.UpdateRelationship)
	protected("DELETE /api/relationships/{id}", h.Relationships.DeleteRelationship)

	protected("POST /api/generate", h.Generate.Generate)

	var handler http.Handler = mux
	handler = middleware.Recovery(cfg.Logger)(handler)
	handler = middleware.Metrics(mux)(handler)
	handler = middleware.RequestLog(cfg.Logger)(handler)
	handler = middleware.RequestID(cfg.Logger)(handler)
	handler = middleware.SecurityHeaders(handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(handler)
}
