package finta

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const streamPath = "/api/streaming/ws/v1/realtime"

// DialStream opens the realtime streaming connection, authenticating with a
// freshly acquired token.
func (c *Client) DialStream(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.auth.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("DialStream: %w", err)
	}

	streamURL := fmt.Sprintf("%s%s?token=%s", c.wsURL, streamPath, token)

	log.Infof("connecting to %s%s", c.wsURL, streamPath)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("DialStream: failed to connect to websocket server: %w", err)
	}

	if conn == nil {
		return nil, fmt.Errorf("DialStream: failed to connect to websocket server: connection is nil")
	}

	return conn, nil
}
