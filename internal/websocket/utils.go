package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// encode builds a frame for event.
func encode(event Event, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data, Timestamp: time.Now().UTC()})
}

// writeFrame sends one text frame with a write deadline.
func writeFrame(conn *websocket.Conn, frame []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// WriteError sends an error frame directly. It is for connections that are
// not registered with a hub.
func WriteError(conn *websocket.Conn, errMsg string) error {
	frame, err := encode(EventError, ErrorData{Error: errMsg})
	if err != nil {
		return err
	}
	return writeFrame(conn, frame)
}
