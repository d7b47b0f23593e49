package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("offset"))
		assert.Equal(t, "30", r.URL.Query().Get("timeout"))

		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":5,"message":{"chat":{"id":100},"text":"hello"}},
			{"update_id":6,"message":{"chat":{"id":200},"text":"world"}}
		]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", nil)
	updates, err := client.GetUpdates(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Equal(t, int64(5), updates[0].UpdateID)
	assert.Equal(t, int64(100), updates[0].Message.Chat.ID)
	assert.Equal(t, "hello", updates[0].Message.Text)
	assert.Equal(t, "world", updates[1].Message.Text)
}

func TestClient_GetUpdates_EmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", nil)
	updates, err := client.GetUpdates(context.Background(), 0, time.Second)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestClient_SendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", nil)
	err := client.SendMessage(context.Background(), 42, "your booking is confirmed")
	require.NoError(t, err)

	assert.Equal(t, float64(42), got["chat_id"])
	assert.Equal(t, "your booking is confirmed", got["text"])
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	client := New(srv.URL, "bad-token", nil)
	_, err := client.GetUpdates(context.Background(), 0, time.Second)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
	assert.Contains(t, apiErr.Description, "Unauthorized")
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := New(srv.URL, "test-token", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetUpdates(ctx, 0, time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
