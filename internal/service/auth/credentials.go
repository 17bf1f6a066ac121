package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"narreyes/internal/config"
	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
	"narreyes/internal/domain/services"
)

// credentialService implements services.CredentialService with bcrypt hashes
type credentialService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

// Option configures the credential service
type Option func(*credentialService)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *credentialService) { s.cost = cost }
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	userRepo repositories.UserRepository,
	logger *slog.Logger,
	opts ...Option,
) services.CredentialService {
	s := &credentialService{
		userRepo: userRepo,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account
func (s *credentialService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateRegister(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies a username and password
func (s *credentialService) Authenticate(ctx context.Context, req *services.LoginRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// GetUser loads an account
func (s *credentialService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// VerifyPassword checks password against the stored hash
func (s *credentialService) VerifyPassword(ctx context.Context, userID int64, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one
func (s *credentialService) ChangePassword(ctx context.Context, userID int64, req *services.ChangePasswordRequest) error {
	if err := validateChangePassword(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.VerifyPassword(ctx, userID, req.CurrentPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
		}
		return err
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// UpdateIdentity changes username and email
func (s *credentialService) UpdateIdentity(ctx context.Context, userID int64, req *services.UpdateIdentityRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.ValidateStruct(req,
		usernameRule(&req.Username),
		emailRule(&req.Email),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.userRepo.UpdateIdentity(ctx, userID, req.Username, req.Email); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID, "username", req.Username)
	return s.userRepo.GetByID(ctx, userID)
}

func (s *credentialService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// dummy returns a hash of a random-looking constant, computed once at the
// configured cost so unknown-user logins cost the same as real ones.
func (s *credentialService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("narreyes-dummy-password"), s.cost)
		if err != nil {
			s.logger.Error("generate dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func validateRegister(req *services.RegisterRequest) error {
	return validation.ValidateStruct(req,
		usernameRule(&req.Username),
		emailRule(&req.Email),
		passwordRule(&req.Password),
		validation.Field(&req.ConfirmPassword,
			validation.Required,
			validation.By(matches(req.Password)),
		),
	)
}

func validateChangePassword(req *services.ChangePasswordRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CurrentPassword, validation.Required),
		passwordRule(&req.NewPassword),
		validation.Field(&req.ConfirmPassword,
			validation.Required,
			validation.By(matches(req.NewPassword)),
		),
	)
}

func usernameRule(username *string) *validation.FieldRules {
	return validation.Field(username,
		validation.Required,
		validation.Length(config.MinUsernameLength, config.MaxUsernameLength),
	)
}

func emailRule(email *string) *validation.FieldRules {
	return validation.Field(email,
		validation.Required,
		validation.Length(1, config.MaxEmailLength),
		is.EmailFormat,
	)
}

func passwordRule(password *string) *validation.FieldRules {
	return validation.Field(password,
		validation.Required,
		validation.Length(config.MinPasswordLength, 0),
		validation.By(maxBytes(config.MaxPasswordLength)),
	)
}

// matches checks a confirmation field against the value it confirms
func matches(want string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); s != want {
			return errors.New("passwords do not match")
		}
		return nil
	}
}

// maxBytes bounds the encoded length; bcrypt refuses inputs over 72 bytes
func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); len(s) > limit {
			return fmt.Errorf("must be at most %d bytes", limit)
		}
		return nil
	}
}
