package prop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/game"
	"go.uber.org/zap"
)

// Sink receives what the board senses. *game.Controller satisfies it.
type Sink interface {
	SetSwitches(now time.Time, value uint8)
	PressKey(ctx context.Context, now time.Time, k byte) error
	Motion(ctx context.Context, now time.Time)
}

var (
	colorDefused  = defuse.Color{R: 0, G: 255, B: 0}
	colorExploded = defuse.Color{R: 255, G: 0, B: 0}
)

// Poller samples the board inputs on a fixed interval and mirrors
// controller events onto the LED and buzzer.
type Poller struct {
	prop      *Prop
	sink      Sink
	events    <-chan game.Event
	interval  time.Duration
	beepPulse time.Duration
	logger    *zap.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex

	// owned by pollLoop
	last    Inputs
	primed  bool
	failing bool
	out     Outputs
	dirty   bool
	buzzOff time.Time
}

func NewPoller(prop *Prop, sink Sink, events <-chan game.Event, interval, beepPulse time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		prop:      prop,
		sink:      sink,
		events:    events,
		interval:  interval,
		beepPulse: beepPulse,
		logger:    logger,
		stopChan:  make(chan struct{}),
		dirty:     true,
	}
}

func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)

	go p.pollLoop()

	p.logger.Info("Prop poller started",
		zap.String("prop", p.prop.Name),
		zap.Duration("interval", p.interval))

	return nil
}

// Stop ends polling, switches the outputs off and disconnects.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.prop.WriteOutputs(ctx, Outputs{}); err != nil {
		p.logger.Debug("Failed to clear prop outputs", zap.Error(err))
	}
	p.prop.Disconnect()

	p.logger.Info("Prop poller stopped", zap.String("prop", p.prop.Name))
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopChan
		cancel()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	events := p.events
	for {
		select {
		case <-p.stopChan:
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.handleEvent(ev, time.Now())
		case now := <-ticker.C:
			p.poll(ctx, now)
		}
	}
}

func (p *Poller) handleEvent(ev game.Event, now time.Time) {
	switch ev.Type {
	case game.EventDisplay:
		if ev.Color != nil {
			p.out.LED = *ev.Color
			p.dirty = true
		}
	case game.EventBeep:
		p.out.Buzzer = true
		p.buzzOff = now.Add(p.beepPulse)
		p.dirty = true
	case game.EventDefused:
		p.out = Outputs{LED: colorDefused}
		p.buzzOff = time.Time{}
		p.dirty = true
	case game.EventExploded:
		// Buzzer stays on until reset.
		p.out = Outputs{LED: colorExploded, Buzzer: true}
		p.buzzOff = time.Time{}
		p.dirty = true
	case game.EventReset:
		p.out = Outputs{}
		p.buzzOff = time.Time{}
		p.dirty = true
	}
}

func (p *Poller) poll(ctx context.Context, now time.Time) {
	if !p.buzzOff.IsZero() && !now.Before(p.buzzOff) {
		p.out.Buzzer = false
		p.buzzOff = time.Time{}
		p.dirty = true
	}

	in, err := p.prop.ReadInputs(ctx)
	if err != nil {
		if !p.failing && ctx.Err() == nil {
			p.logger.Warn("Prop poll failed", zap.String("prop", p.prop.Name), zap.Error(err))
		}
		p.failing = true
		p.dirty = true
		return
	}
	if p.failing {
		p.logger.Info("Prop poll recovered", zap.String("prop", p.prop.Name))
		p.failing = false
	}

	p.apply(ctx, now, in)

	if p.dirty {
		if err := p.prop.WriteOutputs(ctx, p.out); err != nil {
			p.logger.Warn("Prop output write failed", zap.String("prop", p.prop.Name), zap.Error(err))
			return
		}
		p.dirty = false
	}
}

// apply forwards input changes to the sink. Keys and motion fire on the
// rising edge only.
func (p *Poller) apply(ctx context.Context, now time.Time, in Inputs) {
	if !p.primed || in.Switches != p.last.Switches {
		p.sink.SetSwitches(now, in.Switches)
	}

	if p.primed && in.Motion && !p.last.Motion {
		p.sink.Motion(ctx, now)
	}

	if p.primed && in.Key != 0 && in.Key != p.last.Key {
		if err := p.sink.PressKey(ctx, now, in.Key); err != nil {
			level := zap.WarnLevel
			if errors.Is(err, game.ErrNotArmed) {
				level = zap.DebugLevel
			}
			p.logger.Log(level, "Prop key press rejected",
				zap.String("key", string(in.Key)),
				zap.Error(err))
		}
	}

	p.last = in
	p.primed = true
}
