package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
	"narreyes/internal/domain/services"
)

// SessionRevoker invalidates every session of a user issued at or before since.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID int64, since time.Time) error
}

// Repositories groups the stores an account spans
type Repositories struct {
	Users         repositories.UserRepository
	Characters    repositories.CharacterRepository
	Chapters      repositories.ChapterRepository
	Timeline      repositories.TimelineRepository
	Relationships repositories.RelationshipRepository
}

// accountService implements services.AccountService
type accountService struct {
	repos       Repositories
	txManager   repositories.TransactionManager
	credentials services.CredentialService
	sessions    SessionRevoker
	logger      *slog.Logger
	now         func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	repos Repositories,
	txManager repositories.TransactionManager,
	credentials services.CredentialService,
	sessions SessionRevoker,
	logger *slog.Logger,
) services.AccountService {
	return &accountService{
		repos:       repos,
		txManager:   txManager,
		credentials: credentials,
		sessions:    sessions,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *accountService) Profile(ctx context.Context, id models.Identity) (*models.Profile, error) {
	user, err := s.repos.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repos.Users.GetStats(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: user, Stats: stats}, nil
}

func (s *accountService) Dashboard(ctx context.Context, id models.Identity) (*models.WritingStats, error) {
	return s.repos.Users.GetStats(ctx, id.UserID)
}

// DeleteAccount removes dependents explicitly, child tables first.
func (s *accountService) DeleteAccount(ctx context.Context, id models.Identity, req *services.DeleteAccountRequest) error {
	if req.Password == "" {
		return fmt.Errorf("%w: password is required to delete the account", domain.ErrValidation)
	}
	if err := s.credentials.VerifyPassword(ctx, id.UserID, req.Password); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Relationships.DeleteAllForUser(ctx, id.UserID); err != nil {
			return fmt.Errorf("delete relationships: %w", err)
		}
		if err := s.repos.Timeline.DeleteAllForUser(ctx, id.UserID); err != nil {
			return fmt.Errorf("delete timeline: %w", err)
		}
		if err := s.repos.Chapters.DeleteAllForUser(ctx, id.UserID); err != nil {
			return fmt.Errorf("delete chapters: %w", err)
		}
		if err := s.repos.Characters.DeleteAllForUser(ctx, id.UserID); err != nil {
			return fmt.Errorf("delete characters: %w", err)
		}
		return s.repos.Users.Delete(ctx, id.UserID)
	})
	if err != nil {
		return err
	}

	// rows are already gone; leftover tokens name a user that no longer exists
	if err := s.sessions.RevokeUser(ctx, id.UserID, s.now()); err != nil {
		s.logger.Error("revoke sessions after account deletion", "user_id", id.UserID, "error", err)
	}

	s.logger.Info("account deleted", "user_id", id.UserID, "username", id.Username)
	return nil
}
