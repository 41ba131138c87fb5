package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomblanch118/DAB/internal/game"
	"go.uber.org/zap"
)

type fixedStatus struct{}

func (fixedStatus) Status() game.Status {
	return game.Status{State: game.StateIdle, MaxStrikes: 1}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return msg
}

func TestHubBroadcastsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop(), fixedStatus{})
	go hub.Run(ctx)

	events := make(chan game.Event, 1)
	go hub.Forward(ctx, events)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != MessageTypeGameStatus {
		t.Fatalf("first message type = %s, want %s", msg.Type, MessageTypeGameStatus)
	}
	if n := hub.GetClientCount(); n != 1 {
		t.Errorf("GetClientCount() = %d, want 1", n)
	}

	events <- game.Event{Type: game.EventBeep, IntervalMs: 1000}

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeGameEvent {
		t.Fatalf("message type = %s, want %s", msg.Type, MessageTypeGameEvent)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["type"] != string(game.EventBeep) {
		t.Errorf("event data = %v", msg.Data)
	}
}
