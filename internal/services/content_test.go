package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAcrossResources(t *testing.T) {
	db := newTestDB(t)
	home := mustPage(t, db, "Hello World", "/")
	mustPage(t, db, "Contact", "/contact")
	_, err := CreateModule(db, ModuleInput{PageUUID: home, Title: "Greeting", Content: "<b>hello</b> there"})
	require.NoError(t, err)
	_, err = SaveMedia(context.Background(), db, DiskStore{Base: t.TempDir()}, UploadInput{
		Filename: "hello.txt", AltText: "a hello file", Data: []byte("x"),
	})
	require.NoError(t, err)

	res, err := Search(db, SearchQuery{Term: "  HELLO "})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	assert.Equal(t, "pages", res.Results[0].ResourceType)
	assert.Equal(t, home, res.Results[0].ID)
	assert.Equal(t, "modules", res.Results[1].ResourceType)
	assert.Equal(t, "hello there", res.Results[1].Snippet)
	assert.Equal(t, "media", res.Results[2].ResourceType)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPerPage, res.PerPage)

	filtered, err := Search(db, SearchQuery{Term: "hello", Resources: []string{"media", "pages"}})
	require.NoError(t, err)
	require.Equal(t, 2, filtered.Total)
	assert.Equal(t, "pages", filtered.Results[0].ResourceType)
	assert.Equal(t, "media", filtered.Results[1].ResourceType)

	paged, err := Search(db, SearchQuery{Term: "hello", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, paged.Total)
	require.Len(t, paged.Results, 1)
	assert.Equal(t, "media", paged.Results[0].ResourceType)

	_, err = Search(db, SearchQuery{Term: "hello", Resources: []string{"users"}})
	assertStatus(t, err, http.StatusBadRequest)

	empty, err := Search(db, SearchQuery{Term: " "})
	require.NoError(t, err)
	assert.NotNil(t, empty.Results)
	assert.Zero(t, empty.Total)
}

func TestSearchEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	mustPage(t, db, "Plain", "/plain")
	res, err := Search(db, SearchQuery{Term: "%"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", Snippet("<p>a</p>\n<p>b</p>", "a"))
	long := strings.Repeat("x", 300) + " needle " + strings.Repeat("y", 300)
	snippet := Snippet(long, "needle")
	assert.Contains(t, snippet, "needle")
	assert.True(t, strings.HasPrefix(snippet, "…"))
	assert.True(t, strings.HasSuffix(snippet, "…"))
}

func TestSnippetWithCaseExpandingRunes(t *testing.T) {
	// "Ⱥ" is two bytes but lowers to the three byte "ⱥ".
	text := strings.Repeat("Ⱥ", 200) + " Hello"
	snippet := Snippet(text, "hello")
	assert.True(t, strings.HasPrefix(snippet, "…"))
	assert.True(t, strings.HasSuffix(snippet, " Hello"))
	assert.Equal(t, snippetRunes+1, utf8.RuneCountInString(snippet))

	assert.Equal(t, 3, runeIndex([]rune("ⱥⱥⱥHeLLo"), []rune("hello")))
	assert.Equal(t, -1, runeIndex([]rune("Ⱥ"), []rune("hello")))
}

func TestRelationships(t *testing.T) {
	db := newTestDB(t)
	home := mustPage(t, db, "Home", "/")
	about := mustPage(t, db, "About", "/about")

	_, err := CreateRelationship(db, RelationshipInput{SourceType: "page", SourceID: home, TargetType: "user", TargetID: "u", RelationshipType: "links"})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = CreateRelationship(db, RelationshipInput{SourceType: "page", SourceID: home})
	assertStatus(t, err, http.StatusBadRequest)

	rel, err := CreateRelationship(db, RelationshipInput{
		SourceType: "Pages", SourceID: home, TargetType: "page", TargetID: about,
		RelationshipType: "links_to", Metadata: json.RawMessage(`{"weight": 2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rel.ID)
	assert.Equal(t, "page", rel.SourceType)

	out, err := RelatedTo(db, "page", home)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "outgoing", out[0].Direction)
	assert.Equal(t, about, out[0].ResourceID)
	assert.Equal(t, "About", out[0].Title)
	assert.JSONEq(t, `{"weight":2}`, string(out[0].Metadata))

	in, err := RelatedTo(db, "pages", about)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "incoming", in[0].Direction)
	assert.Equal(t, home, in[0].ResourceID)

	require.NoError(t, DeleteRelationship(db, rel.ID))
	assertStatus(t, DeleteRelationship(db, rel.ID), http.StatusNotFound)
	none, err := RelatedTo(db, "page", home)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	home := mustPage(t, db, "Home", "/")

	_, err := CreateCategory(db, CategoryInput{PageUUID: "missing", Title: "News"})
	assertStatus(t, err, http.StatusBadRequest)

	cat, err := CreateCategory(db, CategoryInput{PageUUID: home, Title: "News"})
	require.NoError(t, err)
	title := "Updates"
	updated, err := UpdateCategory(db, cat.UUID, CategoryPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updates", updated.Title)

	list, err := ListCategories(db, home)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Updates", list[0].Title)

	require.NoError(t, DeleteCategory(db, cat.UUID))
	assertStatus(t, DeleteCategory(db, cat.UUID), http.StatusNotFound)
}

func TestAnalyticsSummary(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, TrackVisit(db, "1.1.1.1", "ua", "/", "https://google.com"))
	require.NoError(t, TrackVisit(db, "1.1.1.1", "ua", "/", ""))
	require.NoError(t, TrackVisit(db, "2.2.2.2", "ua", "/about", "https://google.com"))

	summary, err := Summarize(db, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalViews)
	assert.Equal(t, int64(2), summary.UniqueVisitors)
	assert.Equal(t, int64(3), summary.TodayViews)
	require.Len(t, summary.TopPages, 2)
	assert.Equal(t, TopPage{PageURL: "/", Views: 2}, summary.TopPages[0])
	require.Len(t, summary.Referrers, 1)
	assert.Equal(t, Referrer{Source: "https://google.com", Count: 2}, summary.Referrers[0])

	tomorrow, err := Summarize(db, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, tomorrow.TodayViews)
}

func TestMetricsStorage(t *testing.T) {
	db := newTestDB(t)
	first, err := CaptureMetrics(db, t.TempDir())
	require.NoError(t, err)
	_, err = CaptureMetrics(db, t.TempDir())
	require.NoError(t, err)

	items, err := LatestMetrics(db, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[1].CapturedAt.Before(items[0].CapturedAt))
	assert.WithinDuration(t, first.CapturedAt, items[0].CapturedAt, time.Millisecond)

	require.NoError(t, PruneMetrics(db, time.Now().Add(time.Minute)))
	items, err = LatestMetrics(db, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	mustPage(t, db, "Home", "/")
	counts, err := CountContent(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Pages)
	assert.Zero(t, counts.MediaBytes)
}

func TestTokensAndPasswords(t *testing.T) {
	tokens := testTokens()

	hash, err := tokens.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, tokens.VerifyPassword("correct horse", hash))
	assert.False(t, tokens.VerifyPassword("wrong", hash))
	assert.False(t, tokens.VerifyPassword("x", "$argon2id$broken"))

	token, exp, err := tokens.CreateAccessToken("u1", "a@b.c")
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())
	id, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@b.c"}, id)

	other := tokens
	other.Issuer = "someone-else"
	_, err = other.Authenticate(token)
	assert.Error(t, err)

	expired := tokens
	expired.AccessTTL = -time.Minute
	old, _, err := expired.CreateAccessToken("u1", "a@b.c")
	require.NoError(t, err)
	_, err = tokens.Authenticate(old)
	assert.Error(t, err)
}

func TestUsersLogin(t *testing.T) {
	db := newTestDB(t)
	tokens := testTokens()

	created, err := EnsureAdmin(db, tokens, "Admin@Example.com", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = EnsureAdmin(db, tokens, "admin@example.com", "supersecret")
	require.NoError(t, err)
	assert.False(t, created)

	user, token, err := Login(db, tokens, "ADMIN@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	id, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)

	_, _, err = Login(db, tokens, "admin@example.com", "nope")
	assertStatus(t, err, http.StatusUnauthorized)
	_, _, err = Login(db, tokens, "ghost@example.com", "supersecret")
	assertStatus(t, err, http.StatusUnauthorized)
	_, _, err = Login(db, tokens, "", "")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = CreateUser(db, tokens, "admin@example.com", "anotherpass", "", "")
	assertStatus(t, err, http.StatusConflict)
	_, err = CreateUser(db, tokens, "short@example.com", "123", "", "")
	assertStatus(t, err, http.StatusBadRequest)
}
