package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/rounds"
	"go.uber.org/zap"
)

// RoundSource resolves round names for the arm command.
type RoundSource interface {
	Load(name string) (rounds.Round, error)
}

// ResultStore persists finished sessions.
type ResultStore interface {
	SaveResult(ctx context.Context, result Result) error
}

type Options struct {
	BeepUnit      time.Duration
	TickInterval  time.Duration
	DisplayPeriod time.Duration
	MaxStrikes    int
	DefaultRound  string
}

type Controller struct {
	logger *zap.Logger
	rounds RoundSource
	store  ResultStore
	events *Broadcaster
	opts   Options

	mu          sync.RWMutex
	state       State
	sessionID   uuid.UUID
	round       rounds.Round
	now         time.Time
	startedAt   time.Time
	finishedAt  time.Time
	deadline    time.Time
	nextBeep    time.Time
	nextDisplay time.Time
	displayIdx  int
	switches    uint8
	strikes     int
	maxStrikes  int
	boomReason  *defuse.BoomReason
}

// pending collects what a locked section produced. Events are published
// before the lock is released so subscribers see them in state order; the
// result is saved after.
type pending struct {
	events []Event
	result *Result
}

func NewController(logger *zap.Logger, source RoundSource, store ResultStore, events *Broadcaster, opts Options) *Controller {
	if opts.MaxStrikes < 1 {
		opts.MaxStrikes = 1
	}
	if opts.DefaultRound == "" {
		opts.DefaultRound = "default"
	}
	return &Controller{
		logger: logger,
		rounds: source,
		store:  store,
		events: events,
		opts:   opts,
		state:  StateIdle,
	}
}

func (c *Controller) Events() *Broadcaster {
	return c.events
}

// ExecuteCommand dispatches a request the way the REST and gRPC surfaces send it.
func (c *Controller) ExecuteCommand(ctx context.Context, req Request) error {
	c.logger.Info("Game command received",
		zap.String("command", string(req.Command)),
		zap.String("state", string(c.Status().State)))

	now := time.Now()

	switch req.Command {
	case CommandArm:
		name := req.Round
		if name == "" {
			name = c.opts.DefaultRound
		}
		round, err := c.rounds.Load(name)
		if err != nil {
			return fmt.Errorf("failed to load round %s: %w", name, err)
		}
		return c.Arm(ctx, now, round)

	case CommandReset:
		c.Reset(ctx, now)
		return nil

	case CommandKey:
		if len(req.Key) != 1 {
			return fmt.Errorf("%w: %q", ErrInvalidKey, req.Key)
		}
		return c.PressKey(ctx, now, req.Key[0])

	case CommandSwitches:
		if req.Switches == nil || *req.Switches < 0 || *req.Switches > 0xFF {
			return fmt.Errorf("switches must be a value between 0 and 255")
		}
		c.SetSwitches(now, uint8(*req.Switches))
		return nil

	case CommandMotion:
		c.Motion(ctx, now)
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
	}
}

// Arm starts a new session with round. A finished session is replaced.
func (c *Controller) Arm(ctx context.Context, now time.Time, round rounds.Round) error {
	if err := round.Check(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == StateArmed {
		c.mu.Unlock()
		return ErrAlreadyArmed
	}

	c.state = StateArmed
	c.sessionID = uuid.New()
	c.round = round
	c.now = now
	c.startedAt = now
	c.finishedAt = time.Time{}
	c.deadline = now.Add(round.Countdown())
	c.nextBeep = now.Add(c.beepInterval(now))
	c.displayIdx = 0
	c.nextDisplay = now.Add(c.opts.DisplayPeriod)
	c.strikes = 0
	c.boomReason = nil
	c.maxStrikes = c.opts.MaxStrikes
	if round.MaxStrikes > 0 {
		c.maxStrikes = round.MaxStrikes
	}

	var p pending
	p.events = append(p.events, c.event(EventArmed), c.displayEvent())
	sessionID := c.sessionID
	c.publish(p)
	c.mu.Unlock()

	c.logger.Info("Bomb armed",
		zap.String("session_id", sessionID.String()),
		zap.String("round", round.Name),
		zap.Duration("countdown", round.Countdown()),
		zap.String("beep_mode", round.BeepMode.String()))

	c.flush(ctx, p)
	return nil
}

// Reset returns the controller to idle. Resetting an armed bomb records the
// session as aborted.
func (c *Controller) Reset(ctx context.Context, now time.Time) {
	c.mu.Lock()
	var p pending
	c.now = now
	if c.state == StateArmed {
		p.result = c.finish(StateIdle, OutcomeAborted)
	}
	c.state = StateIdle
	p.events = append(p.events, c.event(EventReset))
	c.publish(p)
	c.mu.Unlock()

	c.logger.Info("Game reset")
	c.flush(ctx, p)
}

// SetSwitches records the byte read from the switch bus.
func (c *Controller) SetSwitches(now time.Time, value uint8) {
	c.mu.Lock()
	if c.switches == value {
		c.mu.Unlock()
		return
	}
	c.switches = value
	c.now = now
	ev := c.event(EventSwitches)
	ev.Switches = &value
	c.events.Publish(ev)
	c.mu.Unlock()
}

// PressKey tries to defuse with k. A wrong key or wrong switch setting costs
// a strike; running out of strikes detonates the bomb.
func (c *Controller) PressKey(ctx context.Context, now time.Time, k byte) error {
	if !defuse.IsKey(k) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}

	c.mu.Lock()
	if c.state != StateArmed {
		c.mu.Unlock()
		return ErrNotArmed
	}

	var p pending
	if c.expire(now, &p) {
		c.publish(p)
		c.mu.Unlock()
		c.flush(ctx, p)
		return ErrNotArmed
	}

	if k == c.round.DefuseKey() && c.switches == c.round.Expected() {
		p.result = c.finish(StateDefused, OutcomeDefused)
		ev := c.event(EventDefused)
		ev.Key = string(k)
		p.events = append(p.events, ev)
		sessionID := c.sessionID
		c.publish(p)
		c.mu.Unlock()

		c.logger.Info("Bomb defused",
			zap.String("session_id", sessionID.String()),
			zap.Int64("remaining_ms", ev.RemainingMs))
		c.flush(ctx, p)
		return nil
	}

	c.strikes++
	ev := c.event(EventStrike)
	ev.Key = string(k)
	ev.Strikes = c.strikes
	p.events = append(p.events, ev)

	c.logger.Warn("Wrong defuse attempt",
		zap.String("key", string(k)),
		zap.Uint8("switches", c.switches),
		zap.Int("strikes", c.strikes),
		zap.Int("max_strikes", c.maxStrikes))

	if c.strikes >= c.maxStrikes {
		c.explode(defuse.BoomDefuseFail, &p)
	}
	c.publish(p)
	c.mu.Unlock()

	c.flush(ctx, p)
	return nil
}

// Motion reports a trip of the motion sensor. It only matters while the
// bomb is armed with motion detection on.
func (c *Controller) Motion(ctx context.Context, now time.Time) {
	c.mu.Lock()
	if c.state != StateArmed || !c.round.MotionArmed {
		c.mu.Unlock()
		return
	}

	var p pending
	if !c.expire(now, &p) {
		c.explode(defuse.BoomMotion, &p)
	}
	c.publish(p)
	c.mu.Unlock()

	c.flush(ctx, p)
}

// Tick advances the clock: countdown, beeps and LED colour cycle.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	c.mu.Lock()
	if c.state != StateArmed {
		c.mu.Unlock()
		return
	}

	var p pending
	if !c.expire(now, &p) {
		if c.round.BeepMode != defuse.BeepStop && !now.Before(c.nextBeep) {
			interval := c.beepInterval(now)
			ev := c.event(EventBeep)
			ev.IntervalMs = interval.Milliseconds()
			p.events = append(p.events, ev)
			c.nextBeep = now.Add(interval)
		}

		if !now.Before(c.nextDisplay) {
			c.displayIdx = (c.displayIdx + 1) % 3
			c.nextDisplay = now.Add(c.opts.DisplayPeriod)
			p.events = append(p.events, c.displayEvent())
		}
	}
	c.publish(p)
	c.mu.Unlock()

	c.flush(ctx, p)
}

// Run drives Tick until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	c.logger.Info("Game loop started", zap.Duration("tick_interval", c.opts.TickInterval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Game loop stopped")
			return
		case now := <-ticker.C:
			c.Tick(ctx, now)
		}
	}
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		State:      c.state,
		Switches:   c.switches,
		Strikes:    c.strikes,
		MaxStrikes: c.maxStrikes,
	}
	if c.sessionID == uuid.Nil {
		return status
	}

	status.SessionID = c.sessionID.String()
	status.Round = c.round.Name
	status.BeepMode = c.round.BeepMode.String()
	status.RemainingMs = c.remaining().Milliseconds()
	started := c.startedAt
	status.StartedAt = &started

	if c.state == StateArmed {
		color := c.round.Sequence()[c.displayIdx]
		status.Display = &color
	} else if !c.finishedAt.IsZero() {
		finished := c.finishedAt
		status.FinishedAt = &finished
	}
	if c.boomReason != nil {
		status.BoomReason = c.boomReason.String()
	}
	return status
}

// expire detonates the bomb if now is past the deadline. Caller holds mu.
func (c *Controller) expire(now time.Time, p *pending) bool {
	c.now = now
	if now.Before(c.deadline) {
		return false
	}
	c.now = c.deadline
	c.explode(defuse.BoomTime, p)
	return true
}

// explode ends the session. Caller holds mu.
func (c *Controller) explode(reason defuse.BoomReason, p *pending) {
	c.boomReason = &reason
	p.result = c.finish(StateExploded, OutcomeExploded)
	ev := c.event(EventExploded)
	ev.Reason = reason.String()
	p.events = append(p.events, ev)

	c.logger.Warn("Bomb exploded",
		zap.String("session_id", c.sessionID.String()),
		zap.String("reason", reason.String()))
}

// finish moves to a terminal state and builds the result. Caller holds mu.
func (c *Controller) finish(state State, outcome string) *Result {
	remaining := c.remaining()
	c.state = state
	c.finishedAt = c.now

	result := &Result{
		SessionID:   c.sessionID,
		Round:       c.round.Name,
		Outcome:     outcome,
		Strikes:     c.strikes,
		RemainingMs: remaining.Milliseconds(),
		StartedAt:   c.startedAt,
		FinishedAt:  c.finishedAt,
	}
	if c.boomReason != nil {
		result.BoomReason = c.boomReason.String()
	}
	return result
}

func (c *Controller) remaining() time.Duration {
	if c.state != StateArmed && !c.finishedAt.IsZero() {
		return clamp(c.deadline.Sub(c.finishedAt))
	}
	return clamp(c.deadline.Sub(c.now))
}

// beepInterval is the gap until the next beep. TIMEBASED shrinks it with the
// remaining time, never below one beep unit. Caller holds mu.
func (c *Controller) beepInterval(now time.Time) time.Duration {
	base := time.Duration(defuse.Beep(c.round.Beep).Interval) * c.opts.BeepUnit
	if c.round.BeepMode != defuse.BeepTimeBased {
		return base
	}

	total := c.round.Countdown()
	left := clamp(c.deadline.Sub(now))
	scaled := time.Duration(float64(base) * float64(left) / float64(total))
	if scaled < c.opts.BeepUnit {
		return c.opts.BeepUnit
	}
	return scaled
}

func (c *Controller) event(t EventType) Event {
	ev := Event{
		Type:        t,
		Timestamp:   c.now,
		State:       c.state,
		RemainingMs: c.remaining().Milliseconds(),
		Strikes:     c.strikes,
	}
	if c.sessionID != uuid.Nil {
		ev.SessionID = c.sessionID.String()
	}
	return ev
}

func (c *Controller) displayEvent() Event {
	ev := c.event(EventDisplay)
	color := c.round.Sequence()[c.displayIdx]
	ev.Color = &color
	return ev
}

// publish must be called with mu held. Broadcaster.Publish never blocks.
func (c *Controller) publish(p pending) {
	for _, ev := range p.events {
		c.events.Publish(ev)
	}
}

func (c *Controller) flush(ctx context.Context, p pending) {
	if p.result == nil || c.store == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.store.SaveResult(saveCtx, *p.result); err != nil {
		c.logger.Error("Failed to save game result",
			zap.String("session_id", p.result.SessionID.String()),
			zap.Error(err))
	}
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
