package control

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Client sends control commands to a running daemon.
type Client struct {
	conn    *nats.Conn
	subject string
}

// NewClient returns a client publishing on subject.
func NewClient(conn *nats.Conn, subject string) *Client {
	return &Client{conn: conn, subject: subject}
}

// Send issues cmd and waits for the daemon's response (bounded by ctx).
func (c *Client) Send(ctx context.Context, cmd Command) (Response, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	data, err := cmd.Encode()
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode command: %w", err)
	}
	msg, err := c.conn.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		return Response{}, fmt.Errorf("control request failed: %w", err)
	}
	return DecodeResponse(msg.Data)
}
