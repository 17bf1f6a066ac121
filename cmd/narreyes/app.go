package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"narreyes/internal/config"
	"narreyes/internal/domain"
	"narreyes/internal/domain/repositories"
	"narreyes/internal/domain/services"
	"narreyes/internal/handler"
	"narreyes/internal/ratelimit"
	"narreyes/internal/repository/memory"
	"narreyes/internal/repository/postgres"
	"narreyes/internal/session"
)

// app holds the loaded configuration and logger shared by every command
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func loadApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	slog.SetDefault(logger)

	return &app{cfg: cfg, logger: logger, logCloser: closer}, nil
}

func (a *app) Close() {
	_ = a.logCloser.Close()
}

// storage is either Postgres or the in-memory store
type storage struct {
	users         repositories.UserRepository
	characters    repositories.CharacterRepository
	chapters      repositories.ChapterRepository
	timeline      repositories.TimelineRepository
	relationships repositories.RelationshipRepository
	tx            repositories.TransactionManager

	pool   *pgxpool.Pool // nil for the memory store
	tables *postgres.TableNames
}

// openStorage connects to Postgres and applies the schema, or falls back to
// process memory when the configuration allows it.
func openStorage(ctx context.Context, a *app) (*storage, error) {
	if a.cfg.UsesMemoryStore() {
		a.logger.Warn("DATABASE_URL not set: using in-memory store, data is lost on exit")
		store := memory.NewStore()
		return &storage{
			users:         store.Users(),
			characters:    store.Characters(),
			chapters:      store.Chapters(),
			timeline:      store.Timeline(),
			relationships: store.Relationships(),
			tx:            store,
		}, nil
	}

	pool, tables, err := openDatabase(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: a.logger}
	return &storage{
		users:         postgres.NewUserRepository(repoConfig),
		characters:    postgres.NewCharacterRepository(repoConfig),
		chapters:      postgres.NewChapterRepository(repoConfig),
		timeline:      postgres.NewTimelineRepository(repoConfig),
		relationships: postgres.NewRelationshipRepository(repoConfig),
		tx:            postgres.NewTransactionManager(repoConfig),
		pool:          pool,
		tables:        tables,
	}, nil
}

// openDatabase is for commands that only make sense against a real database
func openDatabase(ctx context.Context, a *app) (*pgxpool.Pool, *postgres.TableNames, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is not set")
	}

	pool, err := postgres.CreateConnectionPool(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("database connected", "table_prefix", a.cfg.TablePrefix)
	return pool, postgres.NewTableNames(a.cfg.TablePrefix), nil
}

func (s *storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// pinger returns the database health check, or nil for the memory store
func (s *storage) pinger() handler.Pinger {
	if s.pool == nil {
		return nil
	}
	return s.pool
}

// sessionBackend builds the revoker and login limiter. Both live in Redis when
// REDIS_ADDR is set so they are shared between instances.
type sessionBackend struct {
	revoker session.TokenRevoker
	limiter ratelimit.Limiter
	client  *redis.Client
}

func openSessionBackend(ctx context.Context, a *app) (*sessionBackend, error) {
	perMinute := a.cfg.LoginRateLimitPerMinute

	if a.cfg.RedisAddr == "" {
		limiter, err := ratelimit.NewMemoryFixedWindowLimiter(perMinute, time.Minute)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{revoker: session.NewMemoryTokenRevoker(), limiter: limiter}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword.Reveal(),
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	limiter, err := ratelimit.NewRedisFixedWindowLimiter(client, "", perMinute, time.Minute)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	a.logger.Info("redis connected", "addr", a.cfg.RedisAddr)

	return &sessionBackend{
		revoker: session.NewRedisTokenRevoker(client, a.cfg.SessionTTL),
		limiter: limiter,
		client:  client,
	}, nil
}

func (b *sessionBackend) Close() {
	if b.client != nil {
		_ = b.client.Close()
	}
}

const (
	testUsername = "test"
	testEmail    = "test@narreyes.com"
	testPassword = "test123"
)

// ensureTestUser creates the shared development login. It is a no-op when the
// account already exists.
func ensureTestUser(ctx context.Context, creds services.CredentialService, logger *slog.Logger) error {
	_, err := creds.Register(ctx, &services.RegisterRequest{
		Username:        testUsername,
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	switch {
	case err == nil:
		logger.Info("test user created", "username", testUsername)
		return nil
	case errors.Is(err, domain.ErrConflict):
		logger.Debug("test user already exists", "username", testUsername)
		return nil
	default:
		return fmt.Errorf("create test user: %w", err)
	}
}
