package websocket

import (
	"time"

	"github.com/tomblanch118/DAB/internal/game"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Sent once right after a client connects
	MessageTypeGameStatus MessageType = "game_status"

	// One per controller event
	MessageTypeGameEvent MessageType = "game_event"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewGameStatusMessage(status game.Status) Message {
	return NewMessage(MessageTypeGameStatus, status)
}

func NewGameEventMessage(ev game.Event) Message {
	return NewMessage(MessageTypeGameEvent, ev)
}
