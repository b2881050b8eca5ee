package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/sweeney/knock-lock/internal/logic"
)

// wsEvent is the JSON shape pushed to live clients.
type wsEvent struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	State       string  `json:"state"`
	FailStreak  int     `json:"fail_streak"`
	IntervalsMs []int64 `json:"intervals_ms,omitempty"`
}

// Hub fans lock events out to connected WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// BroadcastEvent pushes a lock event to all connected clients. Slow clients
// lose messages rather than stalling the poll loop.
func (h *Hub) BroadcastEvent(e logic.Event) {
	msg := wsEvent{
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
		Event:      string(e.Type),
		State:      string(e.State),
		FailStreak: e.FailStreak,
	}
	for _, iv := range e.Intervals {
		msg.IntervalsMs = append(msg.IntervalsMs, iv.Milliseconds())
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client not keeping up; drop this message for it.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("ws: accept: %v", err)
		return
	}

	client := &wsClient{send: make(chan []byte, 16)}
	if !s.hub.add(client) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer s.hub.remove(client)

	ctx := r.Context()

	// Inbound frames are discarded; the read loop only surfaces disconnects.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-client.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}
