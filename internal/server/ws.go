package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes gesture transitions and live landmarks to WebSocket
// clients. The pipeline feeds it through PublishFrame and
// PublishTransition; the handler never reads the camera itself.
type EventsHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates an EventsHandler with no connected clients.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// PublishTransition broadcasts a gesture state change.
func (h *EventsHandler) PublishTransition(tr classify.Transition) {
	h.broadcast(map[string]any{
		"type":      "transition",
		"from":      tr.From.State(),
		"to":        tr.To.State(),
		"timestamp": time.Now().UnixMilli(),
	})
}

// PublishFrame broadcasts the landmarks and label of a processed frame.
// The hand may be nil when no hand was detected.
func (h *EventsHandler) PublishFrame(hand *detector.HandLandmarks, label classify.Label) {
	msg := map[string]any{
		"type":      "frame",
		"state":     label.State(),
		"timestamp": time.Now().UnixMilli(),
	}
	if hand != nil {
		msg["hand"] = hand
	}
	h.broadcast(msg)
}

// ClientCount returns the number of connected clients.
func (h *EventsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventsHandler) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(v)
	if err != nil {
		return
	}

	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
