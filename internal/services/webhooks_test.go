package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedHook struct {
	event     string
	signature string
	body      []byte
}

func hookTarget(t *testing.T, status int) (*httptest.Server, chan capturedHook) {
	t.Helper()
	got := make(chan capturedHook, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- capturedHook{event: r.Header.Get(HeaderEvent), signature: r.Header.Get(HeaderSignature), body: body}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestWebhookCRUD(t *testing.T) {
	db := newTestDB(t)

	_, err := CreateWebhook(db, WebhookInput{URL: "ftp://example.com", Events: []string{"page.created"}})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = CreateWebhook(db, WebhookInput{URL: "https://example.com/hook", Events: []string{"page.exploded"}})
	assertStatus(t, err, http.StatusBadRequest)

	first, err := CreateWebhook(db, WebhookInput{URL: "https://example.com/hook", Events: []string{"page.created", "page.created", "media.uploaded"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.True(t, first.Active)
	assert.Equal(t, []string{"page.created", "media.uploaded"}, WebhookEvents(first))

	inactive := false
	second, err := CreateWebhook(db, WebhookInput{URL: "https://example.com/other", Events: []string{"*"}, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, second.Active)
	assert.True(t, Subscribed(second, EventModuleDeleted))

	events := []string{"page.deleted"}
	active := true
	updated, err := UpdateWebhook(db, second.ID, WebhookPatch{Events: &events, Active: &active})
	require.NoError(t, err)
	assert.True(t, updated.Active)
	assert.Equal(t, "https://example.com/other", updated.URL)
	assert.False(t, Subscribed(updated, EventPageCreated))

	list, err := ListWebhooks(db)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, DeleteWebhook(db, first.ID))
	assertStatus(t, DeleteWebhook(db, first.ID), http.StatusNotFound)
	_, err = GetWebhook(db, first.ID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestWebhookTestDeliverySignsAndLogs(t *testing.T) {
	db := newTestDB(t)
	srv, got := hookTarget(t, http.StatusOK)
	hook, err := CreateWebhook(db, WebhookInput{URL: srv.URL, Events: []string{"page.created"}, Secret: "shh"})
	require.NoError(t, err)

	sender := NewWebhookSender(db, 2*time.Second)
	result, err := sender.Test(context.Background(), hook.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	delivered := <-got
	assert.Equal(t, EventWebhookTest, delivered.event)
	assert.Equal(t, Sign("shh", delivered.body), delivered.signature)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(delivered.body, &envelope))
	assert.Equal(t, EventWebhookTest, envelope["event"])

	logs, err := WebhookLogs(db, hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Equal(t, EventWebhookTest, logs[0].Event)
}

func TestWebhookDeliveryFailureIsLogged(t *testing.T) {
	db := newTestDB(t)
	srv, _ := hookTarget(t, http.StatusInternalServerError)
	hook, err := CreateWebhook(db, WebhookInput{URL: srv.URL, Events: []string{"*"}})
	require.NoError(t, err)

	result, err := NewWebhookSender(db, time.Second).Deliver(context.Background(), hook, EventPageDeleted, map[string]string{"uuid": "p1"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.NotEmpty(t, result.Error)

	logs, err := WebhookLogs(db, hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)

	_, err = WebhookLogs(db, 99, 10)
	assertStatus(t, err, http.StatusNotFound)
}

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	db := newTestDB(t)
	srv, got := hookTarget(t, http.StatusNoContent)
	_, err := CreateWebhook(db, WebhookInput{URL: srv.URL, Events: []string{"page.created"}})
	require.NoError(t, err)
	off := false
	_, err = CreateWebhook(db, WebhookInput{URL: srv.URL, Events: []string{"*"}, Active: &off})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := NewWebhookDispatcher(NewWebhookSender(db, time.Second))
	go dispatcher.Run(ctx)

	dispatcher.Publish(EventModuleCreated, map[string]string{"uuid": "m1"})
	dispatcher.Publish(EventPageCreated, map[string]string{"uuid": "p1"})

	select {
	case delivered := <-got:
		assert.Equal(t, EventPageCreated, delivered.event)
		assert.Empty(t, delivered.signature)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
	select {
	case extra := <-got:
		t.Fatalf("unexpected delivery %s", extra.event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSign(t *testing.T) {
	assert.Equal(t, "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", Sign("key", []byte("The quick brown fox jumps over the lazy dog")))
}
