package story

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narreyes/internal/domain"
	"narreyes/internal/domain/models"
	"narreyes/internal/domain/services"
	"narreyes/internal/repository/memory"
	"narreyes/internal/service/auth"
)

type fixture struct {
	store         *memory.Store
	characters    services.CharacterService
	chapters      services.ChapterService
	timeline      services.TimelineService
	relationships services.RelationshipService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authz := auth.NewOwnerBasedAuthorizer(store.Characters(), store.Chapters())
	return &fixture{
		store:         store,
		characters:    NewCharacterService(store.Characters(), logger),
		chapters:      NewChapterService(store.Chapters(), logger),
		timeline:      NewTimelineService(store.Timeline(), authz, logger),
		relationships: NewRelationshipService(store.Relationships(), authz, logger),
	}
}

func (f *fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *fixture) character(t *testing.T, userID int64, name string) int64 {
	t.Helper()
	c, err := f.characters.CreateCharacter(context.Background(), userID, &services.CharacterRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) chapter(t *testing.T, userID int64, number int, title string) int64 {
	t.Helper()
	c, err := f.chapters.CreateChapter(context.Background(), userID, &services.ChapterRequest{
		Title: title, ChapterNumber: number,
	})
	require.NoError(t, err)
	return c.ID
}

func ptr[T any](v T) *T { return &v }

func TestCharacterCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")

	created, err := f.characters.CreateCharacter(ctx, ada, &services.CharacterRequest{
		Name: "  Mira ", Age: ptr(31), Role: "protagonist",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mira", created.Name)
	assert.Equal(t, ada, created.UserID)

	updated, err := f.characters.UpdateCharacter(ctx, ada, created.ID, &services.CharacterRequest{
		Name: "Mira Vale", Role: "narrator",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mira Vale", updated.Name)
	assert.Nil(t, updated.Age)

	got, err := f.characters.GetCharacter(ctx, ada, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "narrator", got.Role)

	require.NoError(t, f.characters.DeleteCharacter(ctx, ada, created.ID))
	_, err = f.characters.GetCharacter(ctx, ada, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.characters.DeleteCharacter(ctx, ada, created.ID), domain.ErrNotFound)
}

func TestCharacterValidation(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")

	_, err := f.characters.CreateCharacter(context.Background(), ada, &services.CharacterRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.characters.CreateCharacter(context.Background(), ada, &services.CharacterRequest{Name: "x", Age: ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCharactersListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")
	first := f.character(t, ada, "First")
	second := f.character(t, ada, "Second")

	list, err := f.characters.ListCharacters(context.Background(), ada)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")
	adaChar := f.character(t, ada, "Mira")
	adaChapter := f.chapter(t, ada, 1, "Opening")

	_, err := f.characters.GetCharacter(ctx, bob, adaChar)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.characters.UpdateCharacter(ctx, bob, adaChar, &services.CharacterRequest{Name: "stolen"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.characters.DeleteCharacter(ctx, bob, adaChar), domain.ErrNotFound)

	_, err = f.chapters.GetChapter(ctx, bob, adaChapter)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.chapters.UpdateChapter(ctx, bob, adaChapter, &services.ChapterRequest{Title: "stolen", ChapterNumber: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.chapters.DeleteChapter(ctx, bob, adaChapter), domain.ErrNotFound)

	event, err := f.timeline.CreateEvent(ctx, ada, &services.TimelineEventRequest{EventTitle: "Storm", EventDate: "Year 1"})
	require.NoError(t, err)
	_, err = f.timeline.GetEvent(ctx, bob, event.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.timeline.UpdateEvent(ctx, bob, event.ID, &services.TimelineEventRequest{EventTitle: "stolen", EventDate: "Year 2"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.timeline.DeleteEvent(ctx, bob, event.ID), domain.ErrNotFound)

	rel, err := f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{
		Character1ID: adaChar, Character2ID: f.character(t, ada, "Tomas"), RelationshipType: "siblings",
	})
	require.NoError(t, err)
	bobFirst := f.character(t, bob, "Ivo")
	bobSecond := f.character(t, bob, "Lena")
	_, err = f.relationships.GetRelationship(ctx, bob, rel.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// bob owns both characters, so only the row itself is foreign
	_, err = f.relationships.UpdateRelationship(ctx, bob, rel.ID, &services.RelationshipRequest{
		Character1ID: bobFirst, Character2ID: bobSecond, RelationshipType: "stolen",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.relationships.DeleteRelationship(ctx, bob, rel.ID), domain.ErrNotFound)

	list, err := f.characters.ListCharacters(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, c := range list {
		assert.NotEqual(t, adaChar, c.ID)
	}

	// ada's rows are untouched
	got, err := f.characters.GetCharacter(ctx, ada, adaChar)
	require.NoError(t, err)
	assert.Equal(t, "Mira", got.Name)

	chapter, err := f.chapters.GetChapter(ctx, ada, adaChapter)
	require.NoError(t, err)
	assert.Equal(t, "Opening", chapter.Title)

	gotEvent, err := f.timeline.GetEvent(ctx, ada, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Storm", gotEvent.EventTitle)
	assert.Equal(t, "Year 1", gotEvent.EventDate)

	gotRel, err := f.relationships.GetRelationship(ctx, ada, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, adaChar, gotRel.Character1ID)
	assert.Equal(t, "siblings", gotRel.RelationshipType)
}

func TestChapterWordCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")

	ch, err := f.chapters.CreateChapter(ctx, ada, &services.ChapterRequest{
		Title: "One", ChapterNumber: 1, Content: "It was a dark\nand stormy   night",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, ch.WordCount)
	assert.Equal(t, models.ChapterStatusDraft, ch.Status)

	ch, err = f.chapters.UpdateChapter(ctx, ada, ch.ID, &services.ChapterRequest{
		Title: "One", ChapterNumber: 1, Content: "", Status: models.ChapterStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ch.WordCount)
	assert.Equal(t, models.ChapterStatusCompleted, ch.Status)
}

func TestChapterValidation(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")

	tests := []struct {
		name string
		req  services.ChapterRequest
	}{
		{"missing title", services.ChapterRequest{ChapterNumber: 1}},
		{"missing number", services.ChapterRequest{Title: "x"}},
		{"negative number", services.ChapterRequest{Title: "x", ChapterNumber: -2}},
		{"unknown status", services.ChapterRequest{Title: "x", ChapterNumber: 1, Status: "published"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.chapters.CreateChapter(context.Background(), ada, &req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestChaptersOrderedByNumber(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")
	three := f.chapter(t, ada, 3, "Three")
	one := f.chapter(t, ada, 1, "One")

	list, err := f.chapters.ListChapters(context.Background(), ada)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, one, list[0].ID)
	assert.Equal(t, three, list[1].ID)
}

func TestTimelineChapterLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")
	chapter := f.chapter(t, ada, 1, "Opening")
	bobChapter := f.chapter(t, bob, 1, "Elsewhere")

	ev, err := f.timeline.CreateEvent(ctx, ada, &services.TimelineEventRequest{
		EventTitle: "Arrival", EventDate: "Year 1", ChapterID: ptr(chapter),
	})
	require.NoError(t, err)
	require.NotNil(t, ev.ChapterTitle)
	assert.Equal(t, "Opening", *ev.ChapterTitle)

	_, err = f.timeline.CreateEvent(ctx, ada, &services.TimelineEventRequest{
		EventTitle: "Trespass", ChapterID: ptr(bobChapter),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.timeline.CreateEvent(ctx, ada, &services.TimelineEventRequest{EventTitle: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// deleting the chapter keeps the event and clears its link
	require.NoError(t, f.chapters.DeleteChapter(ctx, ada, chapter))
	got, err := f.timeline.GetEvent(ctx, ada, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ChapterID)
	assert.Nil(t, got.ChapterTitle)
}

func TestTimelineOrderedLexically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")

	for _, date := range []string{"Year 10", "Year 2", "Year 1"} {
		_, err := f.timeline.CreateEvent(ctx, ada, &services.TimelineEventRequest{EventTitle: "e", EventDate: date})
		require.NoError(t, err)
	}

	list, err := f.timeline.ListEvents(ctx, ada)
	require.NoError(t, err)
	var dates []string
	for _, e := range list {
		dates = append(dates, e.EventDate)
	}
	assert.Equal(t, []string{"Year 1", "Year 10", "Year 2"}, dates)
}

func TestRelationshipRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")
	mira := f.character(t, ada, "Mira")
	tomas := f.character(t, ada, "Tomas")
	stranger := f.character(t, bob, "Stranger")

	_, err := f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{
		Character1ID: mira, Character2ID: mira,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// equal ids are refused before any field is validated
	_, err = f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// self-relationship wins even when the ids are foreign
	_, err = f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{
		Character1ID: stranger, Character2ID: stranger,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{
		Character1ID: mira, Character2ID: stranger,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rel, err := f.relationships.CreateRelationship(ctx, ada, &services.RelationshipRequest{
		Character1ID: mira, Character2ID: tomas, RelationshipType: "siblings",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mira", rel.Character1Name)
	assert.Equal(t, "Tomas", rel.Character2Name)

	_, err = f.relationships.UpdateRelationship(ctx, ada, rel.ID, &services.RelationshipRequest{
		Character1ID: tomas, Character2ID: tomas,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// deleting a character takes its relationships with it
	require.NoError(t, f.characters.DeleteCharacter(ctx, ada, tomas))
	_, err = f.relationships.GetRelationship(ctx, ada, rel.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	list, err := f.relationships.ListRelationships(ctx, ada)
	require.NoError(t, err)
	assert.Empty(t, list)
}
