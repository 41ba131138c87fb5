// Package keypad reads key presses from a serial keypad. Every byte that is
// a keypad character counts as one press; anything else is line noise.
package keypad

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/tomblanch118/DAB/internal/config"
	"github.com/tomblanch118/DAB/internal/defuse"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const reopenDelay = 500 * time.Millisecond

// KeySink receives decoded presses. *game.Controller satisfies it.
type KeySink interface {
	PressKey(ctx context.Context, now time.Time, k byte) error
}

type openFunc func(portName string, baudRate int) (io.ReadCloser, error)

type Keypad struct {
	logger   *zap.Logger
	portName string
	baudRate int
	sink     KeySink
	open     openFunc

	mu        sync.RWMutex
	connected bool
}

func New(cfg config.KeypadConfig, sink KeySink, logger *zap.Logger) *Keypad {
	return &Keypad{
		logger:   logger.With(zap.String("port", cfg.Port)),
		portName: cfg.Port,
		baudRate: cfg.BaudRate,
		sink:     sink,
		open:     openSerial,
	}
}

func openSerial(portName string, baudRate int) (io.ReadCloser, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	return port, nil
}

func (k *Keypad) Connected() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.connected
}

func (k *Keypad) setConnected(v bool) {
	k.mu.Lock()
	k.connected = v
	k.mu.Unlock()
}

// Run keeps the port open until ctx is cancelled, reopening it whenever it
// fails or is unplugged.
func (k *Keypad) Run(ctx context.Context) {
	errorShown := false

	for {
		port, err := k.open(k.portName, k.baudRate)
		if err != nil {
			if !errorShown {
				k.logger.Error("Failed opening keypad port", zap.Error(err))
				errorShown = true
			}

			select {
			case <-ctx.Done():
				k.logger.Info("Keypad stopped")
				return
			case <-time.After(reopenDelay):
			}
			continue
		}
		errorShown = false
		k.logger.Info("Keypad port opened")
		k.setConnected(true)

		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				port.Close()
			case <-done:
			}
		}()

		k.read(ctx, port)

		close(done)
		port.Close()
		k.setConnected(false)

		if ctx.Err() != nil {
			k.logger.Info("Keypad stopped")
			return
		}
		k.logger.Warn("Keypad port closed, reopening")
	}
}

func (k *Keypad) read(ctx context.Context, port io.Reader) {
	buf := make([]byte, 64)

	for {
		n, err := port.Read(buf)
		for _, key := range Decode(buf[:n]) {
			if err := k.sink.PressKey(ctx, time.Now(), key); err != nil {
				k.logger.Debug("Key press rejected",
					zap.String("key", string(key)),
					zap.Error(err))
			}
		}
		if err != nil || n == 0 {
			return
		}
	}
}

// Decode returns the keypad characters in data, in order.
func Decode(data []byte) []byte {
	keys := make([]byte, 0, len(data))
	for _, b := range data {
		if defuse.IsKey(b) {
			keys = append(keys, b)
		}
	}
	return keys
}
