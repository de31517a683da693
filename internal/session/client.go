package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	sendBuffer  = 256
	maxReadSize = 10 << 20 // load commands carry whole scenes
)

// Client is one websocket connection to a room. Only the room goroutine
// sends to it and closes send.
type Client struct {
	hub  *Hub
	room *Room
	conn *websocket.Conn
	send chan []byte

	UserID      string
	DisplayName string
	ProjectID   string
	ClientID    string
	// CanEdit is false for viewers; they never receive the writer lease.
	CanEdit bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, projectID, clientID string, canEdit bool) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    clientID,
		CanEdit:     canEdit,
	}
}

// Serve pumps messages between the connection and the client's room until
// either side goes away. The client must be registered first.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		status := c.writeLoop(ctx)
		cancel()
		c.conn.Close(status, "")
	}()
	c.readLoop(ctx)
	c.hub.Unregister(c)
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxReadSize)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					slog.Debug("read error", "error", err, "user", c.UserID)
				}
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}
		// identity comes from the connection, never from the payload
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.ProjectID = c.ProjectID

		c.room.dispatch(c, &msg)
	}
}

// writeLoop drains send and keeps the connection alive. It returns the
// close status to send to the peer.
func (c *Client) writeLoop(ctx context.Context) websocket.StatusCode {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// the room left or closed
				return websocket.StatusGoingAway
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return websocket.StatusInternalError
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return websocket.StatusPolicyViolation
			}

		case <-ctx.Done():
			return websocket.StatusNormalClosure
		}
	}
}

// Send queues msg. A client that cannot keep up loses messages rather than
// stalling the room.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID, "type", msg.Type)
	}
}
