package heheclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFeedReceivesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ws/ticket":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"ticket": "t-123", "expires_in": 30})
		case "/api/ws":
			require.Equal(t, "t-123", r.URL.Query().Get("ticket"))
			conn, err := upgrader.Upgrade(w, r, nil)
			require.NoError(t, err)
			defer func() { _ = conn.Close() }()

			_ = conn.WriteJSON(map[string]interface{}{
				"type":    "post_liked",
				"payload": map[string]interface{}{"post_id": 9, "author_score": 12},
			})
			time.Sleep(50 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := New(srv.URL, WithToken("tok")).SubscribeFeed(ctx)
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	select {
	case event := <-stream.Events():
		assert.Equal(t, "post_liked", event.Type)

		var payload struct {
			PostID      uint `json:"post_id"`
			AuthorScore int  `json:"author_score"`
		}
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, uint(9), payload.PostID)
		assert.Equal(t, 12, payload.AuthorScore)
	case <-ctx.Done():
		t.Fatal("timed out waiting for feed event")
	}
}

func TestSubscribeFeedFailsWithoutTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubscribeFeed(context.Background())
	assert.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("http://localhost:8480", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8480/api/ws?ticket=abc", u)

	u, err = websocketURL("https://hehememe.example", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://hehememe.example/api/ws?ticket=abc", u)
}
