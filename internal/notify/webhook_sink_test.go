package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_Notify_PostsJSONPayload(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewWebhookSink(WebhookSinkConfig{CallbackURL: server.URL})
	require.NoError(t, err)

	event := Event{EventKind: EventScenarioClosedForUser, EntryID: "e1", ScenarioID: "s1", UserID: "u1", NetProfit: "9.50"}
	require.NoError(t, sink.Notify(context.Background(), event))
	assert.Equal(t, event, received)
}

func TestWebhookSink_Notify_NonSuccessStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink, err := NewWebhookSink(WebhookSinkConfig{CallbackURL: server.URL})
	require.NoError(t, err)

	err = sink.Notify(context.Background(), Event{EventKind: EventScenarioClosedForUser})
	assert.Error(t, err)
}

func TestWebhookSink_Disabled_SkipsSend(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewWebhookSink(WebhookSinkConfig{CallbackURL: server.URL})
	require.NoError(t, err)
	sink.SetEnabled(false)

	require.NoError(t, sink.Notify(context.Background(), Event{}))
	assert.False(t, called)
}

func TestNewWebhookSink_RequiresCallbackURL(t *testing.T) {
	_, err := NewWebhookSink(WebhookSinkConfig{})
	assert.Error(t, err)
}
