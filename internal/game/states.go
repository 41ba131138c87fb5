package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tomblanch118/DAB/internal/defuse"
)

type State string

const (
	StateIdle     State = "idle"
	StateArmed    State = "armed"
	StateDefused  State = "defused"
	StateExploded State = "exploded"
)

type Command string

const (
	CommandArm      Command = "arm"
	CommandReset    Command = "reset"
	CommandKey      Command = "key"
	CommandSwitches Command = "switches"
	CommandMotion   Command = "motion"
)

// Outcome of a finished session as stored in the results table.
const (
	OutcomeDefused  = "defused"
	OutcomeExploded = "exploded"
	OutcomeAborted  = "aborted"
)

var (
	ErrNotArmed       = errors.New("bomb is not armed")
	ErrAlreadyArmed   = errors.New("bomb is already armed")
	ErrInvalidKey     = errors.New("key is not on the keypad")
	ErrUnknownCommand = errors.New("unknown command")
)

// Request is a command as it arrives over REST or gRPC.
type Request struct {
	Command  Command `json:"command" binding:"required"`
	Round    string  `json:"round,omitempty"`
	Key      string  `json:"key,omitempty"`
	Switches *int    `json:"switches,omitempty"`
}

type Status struct {
	State       State         `json:"state"`
	SessionID   string        `json:"session_id,omitempty"`
	Round       string        `json:"round,omitempty"`
	BeepMode    string        `json:"beep_mode,omitempty"`
	RemainingMs int64         `json:"remaining_ms"`
	Strikes     int           `json:"strikes"`
	MaxStrikes  int           `json:"max_strikes"`
	Switches    uint8         `json:"switches"`
	Display     *defuse.Color `json:"display,omitempty"`
	BoomReason  string        `json:"boom_reason,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// Result is written to the ResultStore when a session ends.
type Result struct {
	SessionID   uuid.UUID `json:"session_id"`
	Round       string    `json:"round"`
	Outcome     string    `json:"outcome"`
	BoomReason  string    `json:"boom_reason,omitempty"`
	Strikes     int       `json:"strikes"`
	RemainingMs int64     `json:"remaining_ms"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
