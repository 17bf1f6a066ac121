package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"narreyes/internal/domain/models"
	"narreyes/internal/generation"
	"narreyes/internal/ratelimit"
	"narreyes/internal/repository/memory"
	"narreyes/internal/service/account"
	"narreyes/internal/service/auth"
	"narreyes/internal/service/story"
	"narreyes/internal/session"
)

const cookieName = "narreyes_session"

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, providerURL string) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	sessions := session.NewManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour, session.NewMemoryTokenRevoker())
	cookies := session.CookieConfig{Name: cookieName}

	creds := auth.NewCredentialService(store.Users(), logger, auth.WithHashCost(bcrypt.MinCost))
	authz := auth.NewOwnerBasedAuthorizer(store.Characters(), store.Chapters())
	accounts := account.NewAccountService(account.Repositories{
		Users:         store.Users(),
		Characters:    store.Characters(),
		Chapters:      store.Chapters(),
		Timeline:      store.Timeline(),
		Relationships: store.Relationships(),
	}, store, creds, sessions, logger)

	cats, err := generation.LoadCategories()
	require.NoError(t, err)
	gen := generation.NewClient(generation.Options{URL: providerURL, APIKey: "k", Timeout: time.Second}, cats, logger)

	limiter, err := ratelimit.NewMemoryFixedWindowLimiter(100, time.Minute)
	require.NoError(t, err)

	authHandler := NewAuthHandler(creds, sessions, cookies, logger)
	h := Handlers{
		Auth:          authHandler,
		Account:       NewAccountHandler(accounts, creds, authHandler, logger),
		Characters:    NewCharacterHandler(story.NewCharacterService(store.Characters(), logger), logger),
		Chapters:      NewChapterHandler(story.NewChapterService(store.Chapters(), logger), logger),
		Timeline:      NewTimelineHandler(story.NewTimelineService(store.Timeline(), authz, logger), logger),
		Relationships: NewRelationshipHandler(story.NewRelationshipService(store.Relationships(), authz, logger), logger),
		Generate:      NewGenerateHandler(gen, logger),
		Health:        NewHealthHandler(nil, logger),
	}

	return &testServer{t: t, handler: NewRouter(h, RouterConfig{
		Sessions:    sessions,
		Tokens:      cookies,
		AuthLimiter: limiter,
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      logger,
	})}
}

func (s *testServer) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		buf = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, buf)
	r.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

// login registers name and returns its session cookie
func (s *testServer) login(name string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": name, "email": name + "@example.com",
		"password": "secret1", "confirm_password": "secret1",
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": name, "password": "secret1",
	}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(s.t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := s.login("ada")
	assert.True(t, cookie.HttpOnly)

	rec = s.do(http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.WritingStats{}, decode[models.WritingStats](t, rec))

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "nope!!"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "ghost", "password": "nope!!"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ada", "email": "x@example.com", "password": "secret1", "confirm_password": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username", decode[map[string]any](t, rec)["field"])

	rec = s.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Less(t, cleared.MaxAge, 0)

	// the old token is dead even if the client kept it
	rec = s.do(http.MethodGet, "/api/dashboard", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBrowserRedirectToLogin(t *testing.T) {
	s := newTestServer(t, "")
	r := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	r.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCharacterRoutes(t *testing.T) {
	s := newTestServer(t, "")
	ada := s.login("ada")
	bob := s.login("bob")

	rec := s.do(http.MethodPost, "/api/characters", map[string]any{"name": "Mira", "age": 30}, ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	mira := decode[models.Character](t, rec)

	path := fmt.Sprintf("/api/characters/%d", mira.ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, nil, ada).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, nil, bob).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/characters/abc", nil, ada).Code)

	rec = s.do(http.MethodPost, "/api/characters", map[string]any{"name": ""}, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = s.do(http.MethodPut, path, map[string]any{"name": "Mira Vale"}, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mira Vale", decode[models.Character](t, rec).Name)

	rec = s.do(http.MethodDelete, path, nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[messageResponse](t, rec).Message)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, nil, ada).Code)

	rec = s.do(http.MethodGet, "/api/characters", nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestStoryRoutes(t *testing.T) {
	s := newTestServer(t, "")
	ada := s.login("ada")

	rec := s.do(http.MethodPost, "/api/chapters", map[string]any{
		"title": "Opening", "chapter_number": 1, "content": "one two three four",
	}, ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chapter := decode[models.Chapter](t, rec)
	assert.Equal(t, 4, chapter.WordCount)

	rec = s.do(http.MethodPost, "/api/timeline", map[string]any{
		"event_title": "Arrival", "event_date": "Day 1", "chapter_id": chapter.ID,
	}, ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[models.TimelineEvent](t, rec)
	require.NotNil(t, event.ChapterTitle)
	assert.Equal(t, "Opening", *event.ChapterTitle)

	a := decode[models.Character](t, s.do(http.MethodPost, "/api/characters", map[string]any{"name": "A"}, ada))
	b := decode[models.Character](t, s.do(http.MethodPost, "/api/characters", map[string]any{"name": "B"}, ada))

	rec = s.do(http.MethodPost, "/api/relationships", map[string]any{
		"character1_id": a.ID, "character2_id": a.ID,
	}, ada)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/relationships", map[string]any{
		"character1_id": a.ID, "character2_id": b.ID, "relationship_type": "rivals",
	}, ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rel := decode[models.Relationship](t, rec)
	assert.Equal(t, "A", rel.Character1Name)

	rec = s.do(http.MethodGet, "/api/dashboard", nil, ada)
	assert.Equal(t, models.WritingStats{
		Characters: 2, Chapters: 1, TimelineItems: 1, Relationships: 1, Words: 4,
	}, decode[models.WritingStats](t, rec))

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/chapters/%d", chapter.ID), nil, ada).Code)
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/timeline/%d", event.ID), nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.TimelineEvent](t, rec).ChapterID)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, "")
	ada := s.login("ada")
	s.login("bob")

	rec := s.do(http.MethodPatch, "/api/profile", map[string]string{"username": "bob", "email": "ada@example.com"}, ada)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPatch, "/api/profile", map[string]string{"username": "ada2", "email": "ada@example.com"}, ada)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := sessionCookie(t, rec)

	rec = s.do(http.MethodGet, "/api/profile", nil, fresh)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada2", decode[models.Profile](t, rec).User.Username)

	rec = s.do(http.MethodPost, "/api/profile/password", map[string]string{
		"current_password": "wrong!", "new_password": "newpass", "confirm_password": "newpass",
	}, fresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodDelete, "/api/profile", map[string]string{"password": ""}, fresh)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/profile", map[string]string{"password": "secret1"}, fresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/profile", nil, fresh).Code)
	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada2", "password": "secret1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateRoute(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] == "mistralai/mistral-nemo-instruct:free" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello there."}}]}`))
	}))
	defer provider.Close()

	s := newTestServer(t, provider.URL)
	ada := s.login("ada")

	rec := s.do(http.MethodPost, "/api/generate", map[string]string{"prompt": "greet", "category": "scene"}, ada)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[generation.Result](t, rec)
	assert.Equal(t, "Hello there.", res.Result)
	assert.Equal(t, "scene", res.Category)

	rec = s.do(http.MethodPost, "/api/generate", map[string]string{"prompt": "talk", "category": "dialogue"}, ada)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodPost, "/api/generate", map[string]string{"prompt": "  "}, ada)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/generate", map[string]string{"prompt": "x"}, nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "narreyes_http_requests_total")
}
