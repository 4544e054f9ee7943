package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

// streamPath is served by a gateway that relays /chat/send-message packets,
// one batch per text frame. The backend itself only speaks NDJSON over HTTP.
const streamPath = "/chat/stream"

// WebSocketClient streams packets over a websocket and uses plain HTTP for
// everything else. Each text frame holds one or more newline-delimited
// packets and becomes one batch.
type WebSocketClient struct {
	*Client
	dialer *websocket.Dialer
}

var _ chat.Backend = (*WebSocketClient)(nil)

func NewWebSocketClient(baseURL string, opts ...Option) *WebSocketClient {
	return &WebSocketClient{
		Client: NewClient(baseURL, opts...),
		dialer: websocket.DefaultDialer,
	}
}

// StreamURL converts the HTTP base URL into the websocket stream endpoint
func (c *WebSocketClient) StreamURL() string {
	url := strings.Replace(c.baseURL, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	return url + streamPath
}

// SendMessage opens a websocket, writes the request and relays frames as batches
func (c *WebSocketClient) SendMessage(ctx context.Context, req chat.SendMessageRequest) (<-chan chat.PacketBatch, error) {
	header := http.Header{}
	c.authorize(header)

	conn, resp, err := c.dialer.DialContext(ctx, c.StreamURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return nil, newAPIError(resp)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	if err := conn.WriteJSON(newSendMessageBody(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	batches := make(chan chat.PacketBatch)
	go readFrames(ctx, conn, batches)
	return batches, nil
}

func readFrames(ctx context.Context, conn *websocket.Conn, out chan<- chat.PacketBatch) {
	defer close(out)

	// unblock ReadMessage when the turn is abandoned
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return
			}
			send(ctx, out, chat.PacketBatch{Err: fmt.Errorf("error reading response: %w", err)})
			return
		}
		if msgType != websocket.TextMessage {
			logger.Debug("Ignoring websocket frame of type %d", msgType)
			continue
		}
		if !emit(ctx, out, data) {
			return
		}
	}
}
