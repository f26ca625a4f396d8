package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
)

// writeWait bounds a single websocket write.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler pushes session events to websocket clients as JSON.
type StreamHandler struct {
	session *app.Session
}

// NewStreamHandler creates a new StreamHandler for the given session.
func NewStreamHandler(s *app.Session) *StreamHandler {
	return &StreamHandler{session: s}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so no event is missed
	events, cancel := h.session.Subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Reading detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("server: websocket write error: %v", err)
				return
			}
		}
	}
}
