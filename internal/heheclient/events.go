package heheclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// FeedEvent is one realtime event from the feed stream, e.g. post_created
// or post_liked.
type FeedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// FeedStream is a live websocket subscription to feed events.
type FeedStream struct {
	conn   *websocket.Conn
	events chan FeedEvent
}

// Events delivers incoming feed events. The channel closes when the
// connection drops or the subscription context ends.
func (s *FeedStream) Events() <-chan FeedEvent {
	return s.events
}

// Close tears the subscription down.
func (s *FeedStream) Close() error {
	return s.conn.Close()
}

// SubscribeFeed opens the realtime feed event stream. It fetches a
// single-use ticket over the authenticated HTTP API, then dials the
// websocket endpoint with it.
func (c *Client) SubscribeFeed(ctx context.Context) (*FeedStream, error) {
	ticket, err := c.WSTicket(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue ws ticket: %w", err)
	}

	wsURL, err := websocketURL(c.baseURL, ticket)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ws dial failed: %w", err)
	}

	stream := &FeedStream{
		conn:   conn,
		events: make(chan FeedEvent, 16),
	}

	go func() {
		defer close(stream.events)
		defer func() { _ = conn.Close() }()
		for {
			var event FeedEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case stream.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	return stream, nil
}

func websocketURL(baseURL, ticket string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	q := u.Query()
	q.Set("ticket", ticket)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
