package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/httputil"
	"narreyes/internal/ratelimit"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubSessions struct {
	valid string
	err   error
}

func (s stubSessions) Authenticate(_ context.Context, token string) (models.Identity, error) {
	if s.err != nil {
		return models.Identity{}, s.err
	}
	if token != s.valid {
		return models.Identity{}, domain.ErrUnauthorized
	}
	return models.Identity{UserID: 7, Username: "ada"}, nil
}

type headerTokens struct{}

func (headerTokens) TokenFromRequest(r *http.Request) string {
	return r.Header.Get("X-Token")
}

func TestRequireSession(t *testing.T) {
	var seen models.Identity
	protected := RequireSession(stubSessions{valid: "good"}, headerTokens{}, discard)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = httputil.GetIdentity(r)
			w.WriteHeader(http.StatusNoContent)
		}))

	t.Run("valid session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
		r.Header.Set("X-Token", "good")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, models.Identity{UserID: 7, Username: "ada"}, seen)
	})

	t.Run("api client without session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/characters", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("browser navigation without session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		r.Header.Set("Accept", "text/html,application/xhtml+xml")
		r.Header.Set("X-Token", "forged")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	})
}

func TestRequireSessionBackendFailure(t *testing.T) {
	h := RequireSession(stubSessions{err: errors.New("redis down")}, headerTokens{}, discard)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter, err := ratelimit.NewMemoryFixedWindowLimiter(2, time.Minute)
	require.NoError(t, err)
	h := RateLimit(limiter, nil, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5001").Code)
	blocked := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000").Code)
}

func TestClientIP(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted *TrustedProxies
		want    string
	}{
		{"direct peer", "203.0.113.5:1234", "", "", trusted, "203.0.113.5"},
		{"untrusted peer ignores forwarded", "203.0.113.5:1234", "1.2.3.4", "", trusted, "203.0.113.5"},
		{"no allowlist ignores forwarded", "10.0.0.1:1234", "1.2.3.4", "", nil, "10.0.0.1"},
		{"trusted proxy", "10.0.0.1:1234", "1.2.3.4", "", trusted, "1.2.3.4"},
		{"nearest untrusted hop", "10.0.0.1:1234", "6.6.6.6, 1.2.3.4, 10.0.0.9", "", trusted, "1.2.3.4"},
		{"real ip fallback", "192.168.1.1:80", "", "5.6.7.8", trusted, "5.6.7.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trusted))
		})
	}

	_, err = NewTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDAndLog(t *testing.T) {
	var id string
	h := RequestID(discard)(RequestLog(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = httputil.GetRequestID(r)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", id)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
