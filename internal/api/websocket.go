package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket constants.
const (
	WSTypeAck   = "ack"
	WSTypeError = "error"

	// wsMaxMessageSize bounds one frame, matching the POST body limit.
	wsMaxMessageSize = maxRequestBodySize

	// wsIdleTimeout closes a stream that sends nothing for this long.
	wsIdleTimeout = 5 * time.Minute

	wsWriteTimeout = 10 * time.Second
)

// WSMessage is the reply sent after every inbound frame.
type WSMessage struct {
	Type     string `json:"type"`
	Accepted int    `json:"accepted,omitempty"`
	Message  string `json:"message,omitempty"`
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Producers are services, not browsers; auth is the token.
		return true
	},
}

// handleLogStream upgrades to a WebSocket and delivers every text frame
// as one record or an array of records. Each frame is acknowledged before
// the next is read, so a producer sees back-pressure from InfluxDB.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.streams.Add(1)
	defer s.streams.Add(-1)

	src := source("websocket", r)
	s.logger.Debug("log stream opened", "source", src)

	conn.SetReadLimit(wsMaxMessageSize)
	for {
		//nolint:errcheck // Best-effort deadline; read error caught below
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "source", src, "error", err)
			} else {
				s.logger.Debug("log stream closed", "source", src)
			}
			return
		}
		if msgType != websocket.TextMessage {
			if !s.reply(conn, WSMessage{Type: WSTypeError, Message: "only text frames are accepted"}) {
				return
			}
			continue
		}

		reply := WSMessage{Type: WSTypeAck}
		n, err := s.dispatcher.Dispatch(r.Context(), src, data)
		if err != nil {
			reply = WSMessage{Type: WSTypeError, Message: err.Error()}
		}
		reply.Accepted = n

		if !s.reply(conn, reply) {
			return
		}
	}
}

// reply writes msg and reports whether the connection is still usable.
func (s *Server) reply(conn *websocket.Conn, msg WSMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	//nolint:errcheck // Best-effort deadline; write error caught below
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data) == nil
}
