package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // monitor runs on a trusted local network
	},
}

// WSMessage represents a WebSocket message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ProgressPayload reports block movement through the accelerator streams.
type ProgressPayload struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"` // 0.0 to 1.0
	Moved    int     `json:"moved,omitempty"`
	Total    int     `json:"total,omitempty"`
}

// SpectrumPayload carries one transformed block as bin magnitudes.
type SpectrumPayload struct {
	N          int       `json:"n"`
	Magnitudes []float64 `json:"magnitudes"`
}

// WSHub manages WebSocket connections.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// AddClient registers a new WebSocket connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Printf("WebSocket client connected (%d total)", len(h.clients))
}

// RemoveClient removes a WebSocket connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	log.Printf("WebSocket client disconnected (%d remaining)", len(h.clients))
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("WebSocket marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write error: %v", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastProgress sends a block movement update to all clients.
func (h *WSHub) BroadcastProgress(status, message string, moved, total int) {
	progress := 0.0
	if total > 0 {
		progress = float64(moved) / float64(total)
	}
	h.Broadcast(WSMessage{
		Type: "progress",
		Payload: ProgressPayload{
			Status:   status,
			Message:  message,
			Progress: progress,
			Moved:    moved,
			Total:    total,
		},
	})
}

// BroadcastSpectrum sends one transformed block to all clients.
func (h *WSHub) BroadcastSpectrum(magnitudes []float64) {
	h.Broadcast(WSMessage{
		Type: "spectrum",
		Payload: SpectrumPayload{
			N:          len(magnitudes),
			Magnitudes: magnitudes,
		},
	})
}

// BroadcastStatus sends a status update to all clients.
func (h *WSHub) BroadcastStatus(status, message string) {
	h.Broadcast(WSMessage{
		Type: "status",
		Payload: map[string]string{
			"status":  status,
			"message": message,
		},
	})
}

// BroadcastLog sends a log message to all clients.
func (h *WSHub) BroadcastLog(level, message string) {
	h.Broadcast(WSMessage{
		Type: "log",
		Payload: map[string]string{
			"level":   level,
			"message": message,
		},
	})
}
