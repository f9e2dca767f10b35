// Package diagnostics is the scheduler process's own operability surface:
// a websocket hub broadcasting lifecycle transitions and an HTTP server
// exposing /healthz and /metrics. It is distinct from the game-domain
// HTTP API, which is a separate external service.
package diagnostics

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bretmckee/game-scheduler/internal/transition"
)

const maxWSConnections = 200

// Hub fans out lifecycle transitions to connected operator dashboards,
// pushing individual events as they happen rather than polling a
// snapshot on a ticker.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	events     chan transition.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		events:     make(chan transition.Event, 256),
	}
}

// OnTransition implements transition.Observer.
func (h *Hub) OnTransition(evt transition.Event) {
	select {
	case h.events <- evt:
	default:
		log.Printf("diagnostics: hub event buffer full, dropping transition for game %s", evt.GameID)
	}
}

// Run drives registration/unregistration and broadcast until stopCh
// closes.
func (h *Hub) Run(stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			h.shutdown()
			return
		case conn := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxWSConnections {
				h.mu.Unlock()
				conn.Close()
				continue
			}
			h.clients[conn] = struct{}{}
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case evt := <-h.events:
			h.broadcast(evt)
		}
	}
}

func (h *Hub) broadcast(evt transition.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(evt); err != nil {
			log.Printf("diagnostics: websocket write error: %v", err)
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

func (h *Hub) Register(conn *websocket.Conn)   { h.register <- conn }
func (h *Hub) Unregister(conn *websocket.Conn) { h.unregister <- conn }

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleStream upgrades a request to a websocket connection and
// registers it with the hub for the lifetime of the connection.
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("diagnostics: websocket upgrade failed: %v", err)
		return
	}
	h.Register(conn)
	defer h.Unregister(conn)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("diagnostics: websocket error: %v", err)
			}
			break
		}
	}
}

// HandleStreamHandler adapts HandleStream to http.HandlerFunc for
// wiring into a mux or a test server.
func (h *Hub) HandleStreamHandler() http.HandlerFunc {
	return h.HandleStream
}

// StatusJSON is a minimal health payload for /healthz.
type StatusJSON struct {
	Status string `json:"status"`
}

func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusJSON{Status: "ok"})
}
