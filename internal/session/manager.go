// Package session issues and validates the signed session tokens that carry
// a user's identity between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
)

const defaultIssuer = "narreyes"

// Manager mints and checks HS256 session tokens.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoker TokenRevoker
	now     func() time.Time
}

// NewManager builds a session manager. revoker may be nil, in which case
// logout only clears the cookie.
func NewManager(secret []byte, ttl time.Duration, revoker TokenRevoker) *Manager {
	return &Manager{
		secret:  secret,
		ttl:     ttl,
		issuer:  defaultIssuer,
		revoker: revoker,
		now:     time.Now,
	}
}

// TTL returns the lifetime of newly issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for id and returns it with its expiry.
func (m *Manager) Issue(id models.Identity) (string, time.Time, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Username: id.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Authenticate validates token and returns the identity it carries.
// Every rejection wraps domain.ErrUnauthorized.
func (m *Manager) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return models.Identity{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return models.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return models.Identity{}, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
		}

		cutoff, err := m.revoker.RevokedAfter(ctx, userID)
		if err != nil {
			return models.Identity{}, fmt.Errorf("check user revocation: %w", err)
		}
		if !cutoff.IsZero() && !claims.IssuedAt.Time.After(cutoff) {
			return models.Identity{}, fmt.Errorf("%w: session revoked for user", domain.ErrUnauthorized)
		}
	}

	return models.Identity{UserID: userID, Username: claims.Username}, nil
}

// Revoke invalidates token until it would have expired. Invalid tokens are
// ignored: there is nothing left to revoke.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if m.revoker == nil {
		return nil
	}
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(m.now()))
}

// RevokeUser invalidates every token of userID issued at or before since.
func (m *Manager) RevokeUser(ctx context.Context, userID int64, since time.Time) error {
	if m.revoker == nil {
		return nil
	}
	return m.revoker.RevokeUser(ctx, userID, since)
}

func (m *Manager) parse(token string) (*models.SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("missing token")
	}

	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" || claims.IssuedAt == nil {
		return nil, errors.New("token is missing jti or iat")
	}
	return claims, nil
}
