package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sporefield/mycelium/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientBuffer is the per-client event queue depth. A client that cannot
// drain this many events is dropped rather than stalling the pipeline.
const clientBuffer = 64

// Hub fans engine events out to connected WebSocket clients. It is safe for
// concurrent use and usable before any client connects.
type Hub struct {
	mu      sync.Mutex
	clients map[chan engine.Event]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan engine.Event]struct{})}
}

// Broadcast delivers an event to every connected client. Slow clients are
// disconnected instead of blocking the caller; the engine invokes this on
// its own goroutine between phases.
func (h *Hub) Broadcast(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// Close disconnects all clients and rejects further broadcasts.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) subscribe() chan engine.Event {
	ch := make(chan engine.Event, clientBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.clients[ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(ch chan engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// New clients get the current state first so they can render without
	// waiting for the next pipeline event.
	state := s.engine.State()
	if err := conn.WriteJSON(engine.Event{Type: "state", State: &state}); err != nil {
		return
	}

	events := s.hub.subscribe()
	defer s.hub.unsubscribe(events)

	// Reader goroutine: clients send nothing meaningful, but reading is
	// how we notice disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read", zap.Error(err))
				}
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket write", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
