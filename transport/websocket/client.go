package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// client is one connected participant. All writes to the connection go
// through the send channel, so messages to one socket keep their send order.
type client struct {
	userID    string
	name      string
	available bool

	conn *websocket.Conn
	send chan serverMessage
}

func newClient(conn *websocket.Conn, userID, name string) *client {
	return &client{
		userID:    userID,
		name:      name,
		available: true,
		conn:      conn,
		send:      make(chan serverMessage, sendBufferSize),
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(message)
			if err != nil {
				continue
			}

			if err = that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
