package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySendsMessageToChat(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tg := NewTelegram("test-token")
	tg.baseURL = server.URL

	err := tg.Notify(context.Background(), "chat-42", "AAPL crossed 150")
	require.NoError(t, err)
	assert.Equal(t, "chat-42", got.ChatID)
	assert.Equal(t, "AAPL crossed 150", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)
}

func TestNotifyFailsWhenTelegramRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	tg := NewTelegram("test-token")
	tg.baseURL = server.URL

	err := tg.Notify(context.Background(), "missing-chat", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNotifyWithoutTokenIsNotConfigured(t *testing.T) {
	tg := NewTelegram("")
	err := tg.Notify(context.Background(), "chat-42", "hello")
	require.ErrorIs(t, err, ErrNotConfigured)
}
