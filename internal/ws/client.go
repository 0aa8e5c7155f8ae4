// Package ws binds authenticated WebSocket connections to table sessions.
// Each connection gets a read pump that decodes client actions and a write
// pump that relays snapshot broadcasts; the session actor never blocks on a
// slow socket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cardroomhq/cardroom/internal/api/apierr"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/protocol"
	"github.com/cardroomhq/cardroom/internal/services/table"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Client is one player's connection to one table. It implements table.Sink;
// the session actor calls Send from its own goroutine, so Send must never
// block.
type Client struct {
	id      string
	player  *model.Player
	session *table.Session
	conn    *websocket.Conn
	logger  *slog.Logger

	send      chan []byte
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, player *model.Player, session *table.Session, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		player:  player,
		session: session,
		conn:    conn,
		logger: logger.With(
			slog.String("connection_id", id),
			slog.String("player_id", string(player.ID)),
			slog.String("table_id", string(session.ID)),
		),
		send: make(chan []byte, sendBuffer),
	}
}

// Send implements table.Sink. A client that can't keep up has its frame
// dropped; the next broadcast carries the full state, so nothing is lost
// for long.
func (c *Client) Send(snapshot *protocol.Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Error("failed to marshal snapshot", slog.Any("error", err))
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("slow consumer, dropping snapshot", slog.Uint64("seq", snapshot.Seq))
	}
}

// sendError delivers an error frame to this connection only
func (c *Client) sendError(err error) {
	frame := protocol.ErrorFrame{Error: err.Error(), Code: apierr.Code(err)}
	data, marshalErr := json.Marshal(frame)
	if marshalErr != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump relays client actions into the session until the connection
// drops or the player leaves. It reports the disconnect to the session so a
// reconnect within the round finds the seat intact.
func (c *Client) readPump() {
	defer func() {
		c.session.Disconnect(c.player.ID, c)
		c.close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("connection closed unexpectedly", slog.Any("error", err))
			}
			return
		}

		action, err := protocol.DecodeAction(data)
		if err != nil {
			c.sendError(err)
			continue
		}

		if err := c.session.Act(context.Background(), c.player.ID, action); err != nil {
			if errors.Is(err, model.ErrTableClosed) {
				return
			}
			c.sendError(err)
			continue
		}

		if action.Type == model.ActionLeave {
			return
		}
	}
}

// writePump drains the send channel onto the socket. It owns all writes to
// the connection and closes it when the channel is closed.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// close ends the write pump. Safe to call more than once. Callers must have
// already detached the client from the session; nothing may Send after this.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
