package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freeradical-go/internal/config"
	"freeradical-go/internal/migrations"
	"freeradical-go/internal/services"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "key-1"

type testEnv struct {
	t      *testing.T
	server *Server
	http   *httptest.Server
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))

	cfg := config.Config{
		JWTSecret:        "test-secret",
		JWTIssuer:        "freeradical-test",
		AccessTTLSeconds: 3600,
		APIKeys:          []string{testAPIKey},
		MediaStoragePath: t.TempDir(),
		MetricsDiskPath:  t.TempDir(),
	}
	server := NewServer(db, cfg, services.NewMetricsHub(), nil)
	_, err = services.EnsureAdmin(db, server.Tokens, "admin@example.com", "supersecret")
	require.NoError(t, err)
	_, token, err := services.Login(db, server.Tokens, "admin@example.com", "supersecret")
	require.NoError(t, err)

	ts := httptest.NewServer(server.Router(context.Background()))
	t.Cleanup(ts.Close)
	return &testEnv{t: t, server: server, http: ts, token: token}
}

type call struct {
	method string
	path   string
	body   any
	auth   string
	apiKey bool
}

func (e *testEnv) do(c call) (*http.Response, []byte) {
	e.t.Helper()
	var reader io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(c.method, e.http.URL+c.path, reader)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", "Bearer "+c.auth)
	}
	if c.apiKey {
		req.Header.Set(headerAPIKey, testAPIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, body
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(call{method: http.MethodPost, path: "/api/login", body: LoginRequest{Email: "admin@example.com", Password: "supersecret"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	login := decodeBody[LoginResponse](t, body)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "admin@example.com", login.User.Email)

	resp, body = env.do(call{method: http.MethodPost, path: "/api/auth/login", body: LoginRequest{Email: "admin@example.com", Password: "wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decodeBody[ErrorResponse](t, body).Message)

	resp, body = env.do(call{method: http.MethodGet, path: "/api/users/me", auth: login.Token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, login.User, decodeBody[UserDTO](t, body))

	resp, _ = env.do(call{method: http.MethodGet, path: "/api/users/me"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodGet, path: "/api/users/me", auth: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodGet, path: "/api/users/me", apiKey: true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(call{method: http.MethodPost, path: "/api/logout", auth: login.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPagesOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	input := services.PageInput{Title: "About", URL: "/about", Content: "<p>Hi</p>"}

	resp, _ := env.do(call{method: http.MethodPost, path: "/api/pages", body: input})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(call{method: http.MethodPost, path: "/api/pages", body: input, auth: env.token})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decodeBody[map[string]any](t, body)
	id := created["uuid"].(string)
	assert.Equal(t, "About", created["page_title"])

	resp, _ = env.do(call{method: http.MethodPost, path: "/api/pages", body: input, apiKey: true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, body = env.do(call{method: http.MethodPost, path: "/api/pages", body: services.PageInput{Title: "Blog", URL: "/blog"}, apiKey: true})
	second := decodeBody[map[string]any](t, body)

	resp, body = env.do(call{method: http.MethodGet, path: "/api/pages?page=2&per_page=1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paged := decodeBody[[]map[string]any](t, body)
	require.Len(t, paged, 1)
	assert.Equal(t, second["uuid"], paged[0]["uuid"])

	status := "published"
	resp, body = env.do(call{method: http.MethodPut, path: "/api/pages/" + id, body: services.PagePatch{Status: &status}, auth: env.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[map[string]any](t, body)
	assert.Equal(t, "published", updated["status"])
	assert.Equal(t, "<p>Hi</p>", updated["content"])

	resp, body = env.do(call{method: http.MethodPut, path: "/api/pages/" + id, body: "nope", auth: env.token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = env.do(call{method: http.MethodDelete, path: "/api/pages/" + id, auth: env.token})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
	resp, body = env.do(call{method: http.MethodGet, path: "/api/pages/" + id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Page not found", decodeBody[ErrorResponse](t, body).Message)
}

func TestModulesEmitConfigAsJSON(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.do(call{method: http.MethodPost, path: "/api/pages", body: services.PageInput{Title: "Home", URL: "/"}, apiKey: true})
	pageID := decodeBody[map[string]any](t, body)["uuid"].(string)

	resp, body := env.do(call{method: http.MethodPost, path: "/api/modules", apiKey: true, body: map[string]any{
		"page_uuid": "missing", "title": "Hero",
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = env.do(call{method: http.MethodPost, path: "/api/modules", apiKey: true, body: map[string]any{
		"page_uuid":        pageID,
		"title":            "Colour",
		"content":          "red",
		"field_type":       "select",
		"field_config":     map[string]any{"options": []string{"red", "blue"}},
		"validation_rules": map[string]any{"allowed_values": []string{"red", "blue"}},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	module := decodeBody[ModuleDTO](t, body)
	assert.JSONEq(t, `{"options":["red","blue"]}`, string(module.FieldConfig))
	assert.JSONEq(t, `{"allowed_values":["red","blue"]}`, string(module.ValidationRules))

	resp, body = env.do(call{method: http.MethodPut, path: "/api/modules/" + module.UUID, apiKey: true, body: map[string]any{"content": "green"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = env.do(call{method: http.MethodGet, path: "/api/modules?page_uuid=" + pageID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]ModuleDTO](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "red", list[0].Content)
}

func TestMediaUploadAndContent(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello media"))
	require.NoError(t, form.WriteField("alt_text", "Some notes"))
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, env.http.URL+"/api/media/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	media := decodeBody[map[string]any](t, body)
	id := media["uuid"].(string)
	assert.Equal(t, "notes.txt", media["original_filename"])
	assert.Equal(t, "Some notes", media["alt_text"])
	assert.EqualValues(t, 11, media["file_size"])
	assert.Equal(t, services.ContentURL(id), media["cdn_url"])
	assert.NotContains(t, media, "sha256")

	resp, body = env.do(call{method: http.MethodGet, path: "/api/media/" + id + "/content"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello media", string(body))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	resp, _ = env.do(call{method: http.MethodPost, path: "/api/media/upload", body: map[string]string{}, apiKey: true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(call{method: http.MethodDelete, path: "/api/media/" + id, apiKey: true})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodGet, path: "/api/media/" + id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(call{method: http.MethodPost, path: "/api/pages", body: services.PageInput{Title: "Hello page", URL: "/hello"}, apiKey: true})

	resp, body := env.do(call{method: http.MethodGet, path: "/api/search?q=hello&resources=pages,media"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decodeBody[services.SearchResults](t, body)
	assert.Equal(t, 1, results.Total)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "pages", results.Results[0].ResourceType)

	resp, _ = env.do(call{method: http.MethodGet, path: "/api/search?q=hello&resources=users"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookEndpoints(t *testing.T) {
	env := newTestEnv(t)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer target.Close()

	resp, _ := env.do(call{method: http.MethodGet, path: "/api/webhooks"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(call{method: http.MethodPost, path: "/api/webhooks", apiKey: true, body: services.WebhookInput{
		URL: target.URL, Events: []string{"page.created"}, Secret: "s3cret",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "s3cret")
	hook := decodeBody[WebhookDTO](t, body)
	assert.True(t, hook.HasSecret)

	resp, body = env.do(call{method: http.MethodPost, path: "/api/webhooks/1/test", apiKey: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	result := decodeBody[services.DeliveryResult](t, body)
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)

	resp, body = env.do(call{method: http.MethodGet, path: "/api/webhooks/1/logs", apiKey: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]map[string]any](t, body), 1)

	resp, _ = env.do(call{method: http.MethodPost, path: "/api/webhooks/abc/test", apiKey: true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodDelete, path: "/api/webhooks/1", apiKey: true})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodPost, path: "/api/webhooks/1/test", apiKey: true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRelationshipEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.do(call{method: http.MethodPost, path: "/api/pages", body: services.PageInput{Title: "A", URL: "/a"}, apiKey: true})
	a := decodeBody[map[string]any](t, body)["uuid"].(string)
	_, body = env.do(call{method: http.MethodPost, path: "/api/pages", body: services.PageInput{Title: "B", URL: "/b"}, apiKey: true})
	b := decodeBody[map[string]any](t, body)["uuid"].(string)

	resp, body := env.do(call{method: http.MethodPost, path: "/api/relationships", apiKey: true, body: map[string]any{
		"source_type": "page", "source_id": a, "target_type": "page", "target_id": b,
		"relationship_type": "links_to", "metadata": map[string]int{"weight": 1},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	rel := decodeBody[RelationshipDTO](t, body)
	assert.JSONEq(t, `{"weight":1}`, string(rel.Metadata))

	resp, body = env.do(call{method: http.MethodGet, path: "/api/relationships/pages/" + b})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	related := decodeBody[[]services.Related](t, body)
	require.Len(t, related, 1)
	assert.Equal(t, "incoming", related[0].Direction)
	assert.Equal(t, "A", related[0].Title)

	resp, _ = env.do(call{method: http.MethodDelete, path: "/api/relationships/1", apiKey: true})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(call{method: http.MethodDelete, path: "/api/relationships/1", apiKey: true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyticsAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(call{method: http.MethodPost, path: "/api/analytics/visits", body: VisitRequest{Path: "/", Referrer: "https://example.org"}})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.do(call{method: http.MethodGet, path: "/api/analytics/summary", auth: env.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeBody[services.AnalyticsSummary](t, body)
	assert.Equal(t, int64(1), summary.TotalViews)
	var ip string
	require.NoError(t, env.server.DB.Get(&ip, `SELECT ip_address FROM site_visits`))
	assert.Equal(t, "127.0.0.1", ip)

	resp, body = env.do(call{method: http.MethodGet, path: "/api/metrics", auth: env.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	metrics := decodeBody[MetricsResponse](t, body)
	assert.False(t, metrics.Sample.CapturedAt.IsZero())
	assert.Zero(t, metrics.Content.Pages)

	_, err := services.CaptureMetrics(env.server.DB, env.server.Config.MetricsDiskPath)
	require.NoError(t, err)
	resp, body = env.do(call{method: http.MethodGet, path: "/api/metrics/history?limit=5", apiKey: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[MetricsHistoryResponse](t, body).Items, 1)

	resp, _ = env.do(call{method: http.MethodGet, path: "/ws/metrics"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(call{method: http.MethodGet, path: "/api/health"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[HealthResponse](t, body).Status)

	require.NoError(t, env.server.DB.Close())
	resp, body = env.do(call{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", decodeBody[HealthResponse](t, body).Status)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := limiter.Middleware([]string{testAPIKey})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	hit := func(mutate func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
		if mutate != nil {
			mutate(req)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, hit(nil))
	assert.Equal(t, http.StatusNoContent, hit(nil))
	assert.Equal(t, http.StatusTooManyRequests, hit(nil))

	other := func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.9") }
	assert.Equal(t, http.StatusNoContent, hit(other))
	keyed := func(r *http.Request) { r.Header.Set(headerAPIKey, testAPIKey) }
	assert.Equal(t, http.StatusNoContent, hit(keyed))
}

func TestRateLimiterPrunesIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("ip:10.0.0.1"))
	assert.False(t, limiter.Allow("ip:10.0.0.1"))
	clock = clock.Add(5 * time.Minute)
	assert.True(t, limiter.Allow("ip:10.0.0.2"))

	clock = clock.Add(6 * time.Minute)
	assert.Equal(t, 1, limiter.Prune(10*time.Minute))
	_, kept := limiter.limiters.Load("ip:10.0.0.2")
	assert.True(t, kept)
	_, dropped := limiter.limiters.Load("ip:10.0.0.1")
	assert.False(t, dropped)

	clock = clock.Add(time.Hour)
	assert.Equal(t, 1, limiter.Prune(10*time.Minute))
}

func TestSearchSurvivesCaseExpandingText(t *testing.T) {
	env := newTestEnv(t)
	_, err := services.CreatePage(env.server.DB, services.PageInput{
		Title:   "Alphabet",
		URL:     "/alphabet",
		Content: strings.Repeat("Ⱥ", 200) + " hello",
	})
	require.NoError(t, err)

	resp, body := env.do(call{method: http.MethodGet, path: "/api/search?q=hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decodeBody[services.SearchResults](t, body)
	require.Len(t, results.Results, 1)
	assert.True(t, strings.HasSuffix(results.Results[0].Snippet, "hello"))
}
