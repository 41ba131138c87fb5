package game

import (
	"sync"
	"time"

	"github.com/tomblanch118/DAB/internal/defuse"
)

type EventType string

const (
	EventArmed    EventType = "armed"
	EventBeep     EventType = "beep"
	EventDisplay  EventType = "display"
	EventSwitches EventType = "switches"
	EventStrike   EventType = "strike"
	EventDefused  EventType = "defused"
	EventExploded EventType = "exploded"
	EventReset    EventType = "reset"
)

type Event struct {
	Type        EventType     `json:"type"`
	SessionID   string        `json:"session_id,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	State       State         `json:"state"`
	RemainingMs int64         `json:"remaining_ms"`
	Color       *defuse.Color `json:"color,omitempty"`
	Key         string        `json:"key,omitempty"`
	Switches    *uint8        `json:"switches,omitempty"`
	Strikes     int           `json:"strikes,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	IntervalMs  int64         `json:"interval_ms,omitempty"`
}

// Broadcaster fans events out to subscribers. Slow subscribers miss events
// instead of blocking the controller.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

func (b *Broadcaster) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *Broadcaster) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			break
		}
	}
}

func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
