package interfaces

import (
	"context"

	"github.com/tomblanch118/DAB/internal/config"
	"github.com/tomblanch118/DAB/internal/game"
	"github.com/tomblanch118/DAB/internal/rounds"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State           string `json:"state"`
	GameState       string `json:"game_state"`
	PropConnected   bool   `json:"prop_connected"`
	KeypadConnected bool   `json:"keypad_connected"`
	ResultsEnabled  bool   `json:"results_enabled"`
}

type GameController interface {
	Status() game.Status
	ExecuteCommand(ctx context.Context, req game.Request) error
}

type RoundCatalog interface {
	Load(name string) (rounds.Round, error)
	List() ([]string, error)
}

type ResultReader interface {
	ListResults(ctx context.Context, limit int) ([]game.Result, error)
}

type LifecycleManager interface {
	Config() *config.Config
	Game() GameController
	Rounds() RoundCatalog
	// Results is nil when no database is configured.
	Results() ResultReader
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
