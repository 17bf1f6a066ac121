package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narreyes/internal/config"
	"narreyes/internal/domain"
)

func newTestClient(t *testing.T, url string, key config.Secret, timeout time.Duration) *Client {
	t.Helper()
	cats, err := LoadCategories()
	require.NoError(t, err)
	return NewClient(Options{
		URL:     url,
		APIKey:  key,
		Timeout: timeout,
		Referer: "http://localhost:8080",
		Title:   "NarrEyes",
	}, cats, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateSendsCategoryAndSampling(t *testing.T) {
	var got chatRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A misty harbour at dawn.  "}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "test-key", time.Second)
	res, err := c.Generate(context.Background(), &Request{Prompt: " a harbour ", Category: "scene"})
	require.NoError(t, err)

	assert.Equal(t, "A misty harbour at dawn.", res.Result)
	assert.Equal(t, "scene", res.Category)
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", res.Model)

	assert.Equal(t, "google/gemini-2.0-flash-exp:free", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "scene-setting expert")
	assert.Equal(t, chatMessage{Role: "user", Content: "a harbour"}, got.Messages[1])
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	assert.Equal(t, 800, got.MaxTokens)
	assert.InDelta(t, 0.92, got.TopP, 1e-9)

	assert.Equal(t, "Bearer test-key", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "http://localhost:8080", headers.Get("HTTP-Referer"))
	assert.Equal(t, "NarrEyes", headers.Get("X-Title"))
}

func TestGenerateUnknownCategoryFallsBackToCharacter(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k", time.Second)
	for _, category := range []string{"", "poetry"} {
		res, err := c.Generate(context.Background(), &Request{Prompt: "hi", Category: category})
		require.NoError(t, err)
		assert.Equal(t, "character", res.Category)
		assert.Equal(t, "meta-llama/llama-4-maverick:free", model)
	}
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"loading", http.StatusServiceUnavailable, "", func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrServiceUnavailable)
		}},
		{"credits", http.StatusPaymentRequired, "", func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrQuotaExhausted)
		}},
		{"bad key", http.StatusUnauthorized, "", func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrProviderUnauthorized)
		}},
		{"server error", http.StatusInternalServerError, "", func(t *testing.T, err error) {
			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 500, pe.StatusCode)
		}},
		{"no choices", http.StatusOK, `{"choices":[]}`, func(t *testing.T, err error) {
			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 200, pe.StatusCode)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, "k", time.Second)
			_, err := c.Generate(context.Background(), &Request{Prompt: "hi"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k", 50*time.Millisecond)
	_, err := c.Generate(context.Background(), &Request{Prompt: "hi"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, http.StatusGatewayTimeout, te.StatusCode())
}

func TestGenerateTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, "k", time.Second)
	_, err := c.Generate(context.Background(), &Request{Prompt: "hi"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestGenerateRejectsBadPromptWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k", time.Second)

	_, err := c.Generate(context.Background(), &Request{Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = c.Generate(context.Background(), &Request{Prompt: strings.Repeat("a", config.MaxPromptLength+1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	noKey := newTestClient(t, srv.URL, "", time.Second)
	_, err = noKey.Generate(context.Background(), &Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrProviderUnauthorized)

	assert.Equal(t, int32(0), calls.Load())
}

func TestLoadCategories(t *testing.T) {
	cats, err := LoadCategories()
	require.NoError(t, err)
	assert.Equal(t, []string{"character", "scene", "dialogue", "description"}, cats.Names())
	assert.Equal(t, "dialogue", cats.Resolve(" Dialogue ").Name)
	assert.Equal(t, "character", cats.Resolve("unknown").Name)
}

func TestParseCategoriesRejectsBadTables(t *testing.T) {
	_, err := parseCategories([]byte("categories: []"))
	assert.Error(t, err)

	_, err = parseCategories([]byte(`
default_category: missing
categories:
  - name: scene
    model: m
`))
	assert.Error(t, err)

	cats, err := parseCategories([]byte(`
default_category: scene
fallback_instruction: be helpful
categories:
  - name: scene
    model: m
`))
	require.NoError(t, err)
	assert.Equal(t, "be helpful", cats.Resolve("scene").Instruction)
}
