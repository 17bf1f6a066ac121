// Package memory keeps all story data in process memory. It backs the dev
// server when no database is configured and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/repositories"
)

// Store holds every table behind one lock and applies the same cascade rules
// as the Postgres schema.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	users         map[int64]models.User
	characters    map[int64]models.Character
	chapters      map[int64]models.Chapter
	timeline      map[int64]models.TimelineEvent
	relationships map[int64]models.Relationship
}

// NewStore initializes an empty store.
func NewStore() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[int64]models.User),
		characters:    make(map[int64]models.Character),
		chapters:      make(map[int64]models.Chapter),
		timeline:      make(map[int64]models.TimelineEvent),
		relationships: make(map[int64]models.Relationship),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users returns the user repository view of the store.
func (s *Store) Users() repositories.UserRepository { return &userRepo{s} }

// Characters returns the character repository view of the store.
func (s *Store) Characters() repositories.CharacterRepository { return &characterRepo{s} }

// Chapters returns the chapter repository view of the store.
func (s *Store) Chapters() repositories.ChapterRepository { return &chapterRepo{s} }

// Timeline returns the timeline repository view of the store.
func (s *Store) Timeline() repositories.TimelineRepository { return &timelineRepo{s} }

// Relationships returns the relationship repository view of the store.
func (s *Store) Relationships() repositories.RelationshipRepository { return &relationshipRepo{s} }

// ExecTx runs fn directly. Every store call is atomic on its own; a failing fn
// does not undo the calls it already made.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

var _ repositories.TransactionManager = (*Store)(nil)

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkIdentity(0, user.Username, user.Email); err != nil {
		return err
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

// checkIdentity mirrors the UNIQUE constraints on username and email.
// Caller holds the lock.
func (s *Store) checkIdentity(selfID int64, username, email string) error {
	for _, u := range s.users {
		if u.ID == selfID {
			continue
		}
		if u.Username == username {
			return &domain.ConflictError{Message: "username already exists", Field: "username"}
		}
		if u.Email == email {
			return &domain.ConflictError{Message: "email already exists", Field: "email"}
		}
	}
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (r *userRepo) UpdateIdentity(_ context.Context, id int64, username, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err := r.s.checkIdentity(id, username, email); err != nil {
		return err
	}
	u.Username = username
	u.Email = email
	r.s.users[id] = u
	return nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.users, id)

	// ON DELETE CASCADE on every user_id
	for k, v := range r.s.relationships {
		if v.UserID == id {
			delete(r.s.relationships, k)
		}
	}
	for k, v := range r.s.timeline {
		if v.UserID == id {
			delete(r.s.timeline, k)
		}
	}
	for k, v := range r.s.chapters {
		if v.UserID == id {
			delete(r.s.chapters, k)
		}
	}
	for k, v := range r.s.characters {
		if v.UserID == id {
			delete(r.s.characters, k)
		}
	}
	return nil
}

func (r *userRepo) GetStats(_ context.Context, userID int64) (*models.WritingStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats models.WritingStats
	for _, c := range r.s.characters {
		if c.UserID == userID {
			stats.Characters++
		}
	}
	for _, c := range r.s.chapters {
		if c.UserID == userID {
			stats.Chapters++
			stats.Words += int64(c.WordCount)
		}
	}
	for _, e := range r.s.timeline {
		if e.UserID == userID {
			stats.TimelineItems++
		}
	}
	for _, rel := range r.s.relationships {
		if rel.UserID == userID {
			stats.Relationships++
		}
	}
	return &stats, nil
}

// --- characters ---

type characterRepo struct{ s *Store }

func (r *characterRepo) Create(_ context.Context, c *models.Character) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[c.UserID]; !ok {
		return fmt.Errorf("user %d: %w", c.UserID, domain.ErrNotFound)
	}
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	r.s.characters[c.ID] = cloneCharacter(*c)
	return nil
}

func (r *characterRepo) GetByID(_ context.Context, id, userID int64) (*models.Character, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.characters[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("character %d: %w", id, domain.ErrNotFound)
	}
	c = cloneCharacter(c)
	return &c, nil
}

func (r *characterRepo) List(_ context.Context, userID int64) ([]models.Character, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Character{}
	for _, c := range r.s.characters {
		if c.UserID == userID {
			out = append(out, cloneCharacter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *characterRepo) Update(_ context.Context, c *models.Character) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.characters[c.ID]
	if !ok || existing.UserID != c.UserID {
		return fmt.Errorf("character %d: %w", c.ID, domain.ErrNotFound)
	}
	c.CreatedAt = existing.CreatedAt
	r.s.characters[c.ID] = cloneCharacter(*c)
	return nil
}

func (r *characterRepo) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.characters[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("character %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.characters, id)
	r.s.dropRelationshipsOf(id)
	return nil
}

func (r *characterRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, c := range r.s.characters {
		if c.UserID == userID {
			delete(r.s.characters, id)
			r.s.dropRelationshipsOf(id)
		}
	}
	return nil
}

// dropRelationshipsOf mirrors ON DELETE CASCADE on both character columns.
// Caller holds the lock.
func (s *Store) dropRelationshipsOf(characterID int64) {
	for id, rel := range s.relationships {
		if rel.Character1ID == characterID || rel.Character2ID == characterID {
			delete(s.relationships, id)
		}
	}
}

// --- chapters ---

type chapterRepo struct{ s *Store }

func (r *chapterRepo) Create(_ context.Context, c *models.Chapter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[c.UserID]; !ok {
		return fmt.Errorf("user %d: %w", c.UserID, domain.ErrNotFound)
	}
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.chapters[c.ID] = *c
	return nil
}

func (r *chapterRepo) GetByID(_ context.Context, id, userID int64) (*models.Chapter, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chapters[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("chapter %d: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *chapterRepo) List(_ context.Context, userID int64) ([]models.Chapter, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Chapter{}
	for _, c := range r.s.chapters {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChapterNumber != out[j].ChapterNumber {
			return out[i].ChapterNumber < out[j].ChapterNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *chapterRepo) Update(_ context.Context, c *models.Chapter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.chapters[c.ID]
	if !ok || existing.UserID != c.UserID {
		return fmt.Errorf("chapter %d: %w", c.ID, domain.ErrNotFound)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.chapters[c.ID] = *c
	return nil
}

func (r *chapterRepo) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chapters[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("chapter %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.chapters, id)
	r.s.unlinkChapter(id)
	return nil
}

func (r *chapterRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, c := range r.s.chapters {
		if c.UserID == userID {
			delete(r.s.chapters, id)
			r.s.unlinkChapter(id)
		}
	}
	return nil
}

// unlinkChapter mirrors ON DELETE SET NULL on timeline.chapter_id.
// Caller holds the lock.
func (s *Store) unlinkChapter(chapterID int64) {
	for id, e := range s.timeline {
		if e.ChapterID != nil && *e.ChapterID == chapterID {
			e.ChapterID = nil
			s.timeline[id] = e
		}
	}
}

// --- timeline ---

type timelineRepo struct{ s *Store }

func (r *timelineRepo) Create(_ context.Context, e *models.TimelineEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkTimelineRefs(e); err != nil {
		return err
	}
	e.ID = r.s.id()
	e.CreatedAt = r.s.now()
	e.ChapterTitle = nil
	r.s.timeline[e.ID] = cloneEvent(*e)
	return nil
}

// checkTimelineRefs mirrors the foreign keys of a timeline row.
// Caller holds the lock.
func (s *Store) checkTimelineRefs(e *models.TimelineEvent) error {
	if _, ok := s.users[e.UserID]; !ok {
		return fmt.Errorf("user %d: %w", e.UserID, domain.ErrNotFound)
	}
	if e.ChapterID != nil {
		if _, ok := s.chapters[*e.ChapterID]; !ok {
			return fmt.Errorf("chapter %d: %w", *e.ChapterID, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *timelineRepo) GetByID(_ context.Context, id, userID int64) (*models.TimelineEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.timeline[id]
	if !ok || e.UserID != userID {
		return nil, fmt.Errorf("timeline event %d: %w", id, domain.ErrNotFound)
	}
	e = r.s.withChapterTitle(e)
	return &e, nil
}

func (r *timelineRepo) List(_ context.Context, userID int64) ([]models.TimelineEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.TimelineEvent{}
	for _, e := range r.s.timeline {
		if e.UserID == userID {
			out = append(out, r.s.withChapterTitle(e))
		}
	}
	// Go string comparison is byte-wise, like COLLATE "C"
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].EventDate, out[j].EventDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// withChapterTitle copies e and fills the left-joined chapter title.
// Caller holds the lock.
func (s *Store) withChapterTitle(e models.TimelineEvent) models.TimelineEvent {
	e = cloneEvent(e)
	e.ChapterTitle = nil
	if e.ChapterID != nil {
		if c, ok := s.chapters[*e.ChapterID]; ok {
			title := c.Title
			e.ChapterTitle = &title
		}
	}
	return e
}

func (r *timelineRepo) Update(_ context.Context, e *models.TimelineEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.timeline[e.ID]
	if !ok || existing.UserID != e.UserID {
		return fmt.Errorf("timeline event %d: %w", e.ID, domain.ErrNotFound)
	}
	if err := r.s.checkTimelineRefs(e); err != nil {
		return err
	}
	e.CreatedAt = existing.CreatedAt
	r.s.timeline[e.ID] = cloneEvent(*e)
	return nil
}

func (r *timelineRepo) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.timeline[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("timeline event %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.timeline, id)
	return nil
}

func (r *timelineRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, e := range r.s.timeline {
		if e.UserID == userID {
			delete(r.s.timeline, id)
		}
	}
	return nil
}

// --- relationships ---

type relationshipRepo struct{ s *Store }

func (r *relationshipRepo) Create(_ context.Context, rel *models.Relationship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkRelationshipRefs(rel); err != nil {
		return err
	}
	rel.ID = r.s.id()
	rel.CreatedAt = r.s.now()
	rel.Character1Name, rel.Character2Name = "", ""
	r.s.relationships[rel.ID] = *rel
	return nil
}

// checkRelationshipRefs mirrors the CHECK and foreign keys of a relationship row.
// Caller holds the lock.
func (s *Store) checkRelationshipRefs(rel *models.Relationship) error {
	if rel.Character1ID == rel.Character2ID {
		return fmt.Errorf("%w: a character cannot have a relationship with itself", domain.ErrInvalidOperation)
	}
	if _, ok := s.users[rel.UserID]; !ok {
		return fmt.Errorf("user %d: %w", rel.UserID, domain.ErrNotFound)
	}
	for _, id := range []int64{rel.Character1ID, rel.Character2ID} {
		if _, ok := s.characters[id]; !ok {
			return fmt.Errorf("character %d: %w", id, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *relationshipRepo) GetByID(_ context.Context, id, userID int64) (*models.Relationship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rel, ok := r.s.relationships[id]
	if !ok || rel.UserID != userID {
		return nil, fmt.Errorf("relationship %d: %w", id, domain.ErrNotFound)
	}
	rel = r.s.withCharacterNames(rel)
	return &rel, nil
}

func (r *relationshipRepo) List(_ context.Context, userID int64) ([]models.Relationship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Relationship{}
	for _, rel := range r.s.relationships {
		if rel.UserID == userID {
			out = append(out, r.s.withCharacterNames(rel))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// withCharacterNames fills both joined character names.
// Caller holds the lock.
func (s *Store) withCharacterNames(rel models.Relationship) models.Relationship {
	rel.Character1Name = s.characters[rel.Character1ID].Name
	rel.Character2Name = s.characters[rel.Character2ID].Name
	return rel
}

func (r *relationshipRepo) Update(_ context.Context, rel *models.Relationship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.relationships[rel.ID]
	if !ok || existing.UserID != rel.UserID {
		return fmt.Errorf("relationship %d: %w", rel.ID, domain.ErrNotFound)
	}
	if err := r.s.checkRelationshipRefs(rel); err != nil {
		return err
	}
	rel.CreatedAt = existing.CreatedAt
	stored := *rel
	stored.Character1Name, stored.Character2Name = "", ""
	r.s.relationships[rel.ID] = stored
	return nil
}

func (r *relationshipRepo) Delete(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rel, ok := r.s.relationships[id]
	if !ok || rel.UserID != userID {
		return fmt.Errorf("relationship %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.relationships, id)
	return nil
}

func (r *relationshipRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, rel := range r.s.relationships {
		if rel.UserID == userID {
			delete(r.s.relationships, id)
		}
	}
	return nil
}

// --- helpers ---

func newerFirst(ti, tj time.Time, idi, idj int64) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}

func cloneCharacter(c models.Character) models.Character {
	if c.Age != nil {
		age := *c.Age
		c.Age = &age
	}
	return c
}

func cloneEvent(e models.TimelineEvent) models.TimelineEvent {
	if e.ChapterID != nil {
		id := *e.ChapterID
		e.ChapterID = &id
	}
	return e
}
