package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker tracks revoked session ids until they would have expired anyway,
// plus a per-user cutoff: tokens issued at or before it are dead.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeUser kills every token of userID issued at or before since.
	// Cutoffs only move forward.
	RevokeUser(ctx context.Context, userID int64, since time.Time) error

	// RevokedAfter returns the user's cutoff, or the zero time when none is set.
	RevokedAfter(ctx context.Context, userID int64) (time.Time, error)
}

// MemoryTokenRevoker keeps revocations in-process (single instance only).
type MemoryTokenRevoker struct {
	now func() time.Time

	mu      sync.Mutex
	tokens  map[string]time.Time
	cutoffs map[int64]time.Time
}

// NewMemoryTokenRevoker builds an in-memory revoker.
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		now:     time.Now,
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[int64]time.Time),
	}
}

// Revoke marks a token as revoked until its expiry. Entries that have already
// expired are dropped on the way.
func (r *MemoryTokenRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, expiry := range r.tokens {
		if now.After(expiry) {
			delete(r.tokens, id)
		}
	}
	r.tokens[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked checks if the token is revoked.
func (r *MemoryTokenRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if r.now().After(expiry) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// RevokeUser records a cutoff for the user, keeping the newest one.
func (r *MemoryTokenRevoker) RevokeUser(_ context.Context, userID int64, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.cutoffs[userID]; ok && !since.After(current) {
		return nil
	}
	r.cutoffs[userID] = since.UTC()
	return nil
}

// RevokedAfter returns the user's cutoff.
func (r *MemoryTokenRevoker) RevokedAfter(_ context.Context, userID int64) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cutoffs[userID], nil
}

// RedisTokenRevoker stores revocations in Redis so every instance sees them.
type RedisTokenRevoker struct {
	client    redis.UniversalClient
	cutoffTTL time.Duration
}

// NewRedisTokenRevoker builds a Redis-backed revoker. cutoffTTL should be at
// least the session lifetime; older tokens have expired by then anyway.
func NewRedisTokenRevoker(client redis.UniversalClient, cutoffTTL time.Duration) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client, cutoffTTL: cutoffTTL}
}

// Revoke marks a token as revoked until expiry.
func (r *RedisTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

// IsRevoked checks if the token is revoked.
func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// keep the larger of the stored and the new cutoff (unix milliseconds)
var raiseCutoffScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local proposed = tonumber(ARGV[1])
if proposed > current then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
return 0
`)

// RevokeUser records a cutoff for the user, keeping the newest one.
func (r *RedisTokenRevoker) RevokeUser(ctx context.Context, userID int64, since time.Time) error {
	return raiseCutoffScript.Run(ctx, r.client,
		[]string{userCutoffKey(userID)},
		since.UTC().UnixMilli(),
		r.cutoffTTL.Milliseconds(),
	).Err()
}

// RevokedAfter returns the user's cutoff.
func (r *RedisTokenRevoker) RevokedAfter(ctx context.Context, userID int64) (time.Time, error) {
	val, err := r.client.Get(ctx, userCutoffKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(val).UTC(), nil
}

func revocationKey(tokenID string) string {
	return "narreyes:revoked:" + tokenID
}

func userCutoffKey(userID int64) string {
	return "narreyes:revoked_user:" + strconv.FormatInt(userID, 10)
}
