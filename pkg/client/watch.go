package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// WatchNotes opens the WebSocket watch endpoint for the user and streams
// note-list snapshots. The service pushes the full list immediately and
// again after every change to the user's notes. The channel closes when
// ctx ends or the connection drops; there is no automatic reconnect.
func (c *Client) WatchNotes(ctx context.Context, userID models.UserID) (<-chan []*models.WireNote, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) +
		"/api/v1/notes/watch/" + userID.String()

	header := http.Header{}
	if c.authToken != "" {
		header.Set("Authorization", "Bearer "+c.authToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	out := make(chan []*models.WireNote, 1)
	done := make(chan struct{})

	// The waiter closes the connection on cancellation to unblock the
	// reader, and exits with the reader when the connection drops first.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			var notes []*models.WireNote
			if err := conn.ReadJSON(&notes); err != nil {
				return
			}
			select {
			case out <- notes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
