package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"narreyes/internal/generation"
	"narreyes/internal/handler"
	"narreyes/internal/middleware"
	"narreyes/internal/service/account"
	"narreyes/internal/service/auth"
	"narreyes/internal/service/story"
	"narreyes/internal/session"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Runs the API server until SIGINT or SIGTERM, then drains in-flight
requests before exiting. The schema is applied at start-up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)
	if cfg.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET not set: generated a random one, sessions end on restart")
	}
	if cfg.GenerationAPIKey == "" {
		logger.Warn("GENERATION_API_KEY not set: generation requests will fail")
	}

	store, err := openStorage(ctx, a)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := openSessionBackend(ctx, a)
	if err != nil {
		return err
	}
	defer backend.Close()

	trusted, err := middleware.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	categories, err := generation.LoadCategories()
	if err != nil {
		return err
	}

	sessions := session.NewManager([]byte(cfg.SessionSecret.Reveal()), cfg.SessionTTL, backend.revoker)
	cookies := session.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.SessionCookieSecure}

	// Services
	credentials := auth.NewCredentialService(store.users, logger)
	authorizer := auth.NewOwnerBasedAuthorizer(store.characters, store.chapters)
	accounts := account.NewAccountService(account.Repositories{
		Users:         store.users,
		Characters:    store.characters,
		Chapters:      store.chapters,
		Timeline:      store.timeline,
		Relationships: store.relationships,
	}, store.tx, credentials, sessions, logger)
	generator := generation.NewClient(generation.Options{
		URL:     cfg.GenerationAPIURL,
		APIKey:  cfg.GenerationAPIKey,
		Timeout: cfg.GenerationTimeout,
		Referer: cfg.GenerationReferer,
		Title:   cfg.GenerationTitle,
	}, categories, logger)

	if !cfg.IsProduction() {
		if err := ensureTestUser(ctx, credentials, logger); err != nil {
			return err
		}
	}

	// Handlers
	authHandler := handler.NewAuthHandler(credentials, sessions, cookies, logger)
	router := handler.NewRouter(handler.Handlers{
		Auth:          authHandler,
		Account:       handler.NewAccountHandler(accounts, credentials, authHandler, logger),
		Characters:    handler.NewCharacterHandler(story.NewCharacterService(store.characters, logger), logger),
		Chapters:      handler.NewChapterHandler(story.NewChapterService(store.chapters, logger), logger),
		Timeline:      handler.NewTimelineHandler(story.NewTimelineService(store.timeline, authorizer, logger), logger),
		Relationships: handler.NewRelationshipHandler(story.NewRelationshipService(store.relationships, authorizer, logger), logger),
		Generate:      handler.NewGenerateHandler(generator, logger),
		Health:        handler.NewHealthHandler(store.pinger(), logger),
	}, handler.RouterConfig{
		Sessions:       sessions,
		Tokens:         cookies,
		AuthLimiter:    backend.limiter,
		TrustedProxies: trusted,
		CORSOrigins:    strings.Split(cfg.CORSOrigins, ","),
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// generation calls may hold a request for the full provider timeout
		WriteTimeout: cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
