package diagnostics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bretmckee/game-scheduler/internal/transition"
)

func TestHubBroadcastsTransitionToClient(t *testing.T) {
	hub := NewHub()
	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	srv := httptest.NewServer(hub.HandleStreamHandler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the connection before pushing.
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.OnTransition(transition.Event{GameID: "g1", State: transition.StateCompleted})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var evt transition.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if evt.GameID != "g1" || evt.State != transition.StateCompleted {
		t.Errorf("unexpected event: %+v", evt)
	}
}
