package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tomblanch118/DAB/internal/api/rest"
	"github.com/tomblanch118/DAB/internal/api/websocket"
	"github.com/tomblanch118/DAB/internal/auth"
	"github.com/tomblanch118/DAB/internal/config"
	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/game"
	"github.com/tomblanch118/DAB/internal/interfaces"
	"github.com/tomblanch118/DAB/internal/keypad"
	"github.com/tomblanch118/DAB/internal/prop"
	"github.com/tomblanch118/DAB/internal/rounds"
	"github.com/tomblanch118/DAB/internal/storage"
	"github.com/tomblanch118/DAB/internal/streaming"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type LifecycleManager struct {
	config      *config.Config
	storage     *storage.PostgresClient
	rounds      *rounds.Loader
	events      *game.Broadcaster
	controller  *game.Controller
	authService *auth.AuthService
	wsHub       *websocket.Hub
	gameService *streaming.GameService
	prop        *prop.Prop
	poller      *prop.Poller
	keypad      *keypad.Keypad
	logger      *zap.Logger

	restServer *rest.Server
	grpcServer *grpc.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

// NewLifecycleManager wires every component. db may be nil, in which case
// results are not recorded.
func NewLifecycleManager(db *storage.PostgresClient, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	if err := defuse.Check(); err != nil {
		return nil, fmt.Errorf("configuration tables are inconsistent: %w", err)
	}

	loader, err := rounds.NewLoader(cfg.Rounds.SearchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create round loader: %w", err)
	}

	var store game.ResultStore
	if db != nil {
		store = db
	}

	events := game.NewBroadcaster()
	controller := game.NewController(logger, loader, store, events, game.Options{
		BeepUnit:      cfg.Game.BeepUnit,
		TickInterval:  cfg.Game.TickInterval,
		DisplayPeriod: cfg.Game.DisplayPeriod,
		MaxStrikes:    cfg.Game.MaxStrikes,
		DefaultRound:  cfg.Game.DefaultRound,
	})

	lm := &LifecycleManager{
		config:       cfg,
		storage:      db,
		rounds:       loader,
		events:       events,
		controller:   controller,
		authService:  auth.NewAuthService(cfg.Auth, logger),
		wsHub:        websocket.NewHub(logger, controller),
		gameService:  streaming.NewGameService(controller, events, logger),
		logger:       logger,
		currentState: StateInitializing,
	}

	if cfg.Prop.Address != "" {
		lm.prop = prop.NewProp("prop", cfg.Prop.Address, uint8(cfg.Prop.UnitID), cfg.Prop.Timeout)
		lm.poller = prop.NewPoller(lm.prop, controller, events.Subscribe(),
			cfg.Prop.PollInterval, cfg.Prop.BeepPulse, logger)
	}
	if cfg.Keypad.Port != "" {
		lm.keypad = keypad.New(cfg.Keypad, controller, logger)
	}

	return lm, nil
}

// Start starts the game loop, device I/O and both API servers.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting DAB controller")

	ctx, cancel := context.WithCancel(context.Background())
	lm.cancel = cancel

	lm.goRun(func() { lm.controller.Run(ctx) })
	lm.goRun(func() { lm.wsHub.Run(ctx) })

	hubEvents := lm.events.Subscribe()
	lm.goRun(func() {
		defer lm.events.Unsubscribe(hubEvents)
		lm.wsHub.Forward(ctx, hubEvents)
	})

	if lm.poller != nil {
		if err := lm.poller.Start(); err != nil {
			lm.setError(fmt.Errorf("failed to start prop poller: %w", err))
			return err
		}
	}
	if lm.keypad != nil {
		lm.goRun(func() { lm.keypad.Run(ctx) })
	}

	if err := lm.startGRPCServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start gRPC: %w", err))
		return err
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("grpc_port", lm.config.Server.GRPCPort),
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Bool("prop_enabled", lm.poller != nil),
		zap.Bool("keypad_enabled", lm.keypad != nil),
		zap.Bool("results_enabled", lm.storage != nil))

	return nil
}

func (lm *LifecycleManager) goRun(fn func()) {
	lm.wg.Add(1)
	go func() {
		defer lm.wg.Done()
		fn()
	}()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var errs []error

	if lm.restServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("rest api shutdown failed: %w", err))
		}
		cancel()
	}

	// Event streams never end on their own, so fall back to a hard stop.
	if lm.grpcServer != nil {
		done := make(chan struct{})
		go func() {
			lm.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			lm.logger.Warn("gRPC graceful stop timed out, forcing stop")
			lm.grpcServer.Stop()
		}
	}

	if lm.poller != nil {
		lm.poller.Stop()
	}

	if lm.cancel != nil {
		lm.cancel()
	}

	done := make(chan struct{})
	go func() {
		lm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lm.logger.Info("Graceful shutdown completed")
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		errs = append(errs, fmt.Errorf("shutdown timeout exceeded"))
	}

	return errors.Join(errs...)
}

func (lm *LifecycleManager) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", lm.config.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	lm.grpcServer = grpc.NewServer()
	streaming.RegisterGameServiceServer(lm.grpcServer, lm.gameService)

	go func() {
		lm.logger.Info("gRPC server listening",
			zap.String("address", lis.Addr().String()),
			zap.String("services", streaming.ServiceName))
		if err := lm.grpcServer.Serve(lis); err != nil {
			lm.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.authService)
	return lm.restServer.Start()
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected system state change", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))
	lm.setState(StateError)
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	return interfaces.SystemStatus{
		State:           lm.State().String(),
		GameState:       string(lm.controller.Status().State),
		PropConnected:   lm.poller != nil && lm.poller.IsRunning() && lm.prop.Connected(),
		KeypadConnected: lm.keypad != nil && lm.keypad.Connected(),
		ResultsEnabled:  lm.storage != nil,
	}
}

func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func (lm *LifecycleManager) Game() interfaces.GameController {
	return lm.controller
}

func (lm *LifecycleManager) Rounds() interfaces.RoundCatalog {
	return lm.rounds
}

func (lm *LifecycleManager) Results() interfaces.ResultReader {
	if lm.storage == nil {
		return nil
	}
	return lm.storage
}
