// Package prop talks to the Modbus I/O board inside the bomb prop.
package prop

import (
	"context"
	"fmt"
	"time"

	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/modbus"
)

// Register map of the I/O board.
const (
	RegSwitches = 0 // input: DIP switch byte
	RegMotion   = 1 // input: non-zero while the motion sensor trips
	RegKey      = 2 // input: ASCII of the key held down, 0 for none
	inputCount  = 3

	RegLEDRed   = 0 // holding
	RegLEDGreen = 1
	RegLEDBlue  = 2
	RegBuzzer   = 3
	outputCount = 4
)

// Inputs is one sample of the board's inputs.
type Inputs struct {
	Switches uint8
	Motion   bool
	Key      byte
}

// Outputs is the LED color and buzzer state to show.
type Outputs struct {
	LED    defuse.Color
	Buzzer bool
}

type Prop struct {
	Name   string
	Client *modbus.Client
	unitID uint8
}

func NewProp(name, address string, unitID uint8, timeout time.Duration) *Prop {
	return &Prop{
		Name:   name,
		Client: modbus.NewClient(address, timeout),
		unitID: unitID,
	}
}

func (p *Prop) Connect(ctx context.Context) error {
	if err := p.Client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.Name, err)
	}
	return nil
}

func (p *Prop) Disconnect() error {
	return p.Client.Close()
}

func (p *Prop) Connected() bool {
	return p.Client.IsConnected()
}

// ReadInputs samples every input register in one request.
func (p *Prop) ReadInputs(ctx context.Context) (Inputs, error) {
	regs, err := p.Client.ReadInputRegisters(ctx, p.unitID, RegSwitches, inputCount)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to read inputs of %s: %w", p.Name, err)
	}

	in := Inputs{
		Switches: uint8(regs[RegSwitches]),
		Motion:   regs[RegMotion] != 0,
	}
	if k := regs[RegKey]; k != 0 && k < 0x80 {
		in.Key = byte(k)
	}
	return in, nil
}

// WriteOutputs sets the LED and buzzer in one request.
func (p *Prop) WriteOutputs(ctx context.Context, out Outputs) error {
	values := make([]uint16, outputCount)
	values[RegLEDRed] = uint16(out.LED.R)
	values[RegLEDGreen] = uint16(out.LED.G)
	values[RegLEDBlue] = uint16(out.LED.B)
	if out.Buzzer {
		values[RegBuzzer] = 1
	}

	if err := p.Client.WriteMultipleRegisters(ctx, p.unitID, RegLEDRed, values); err != nil {
		return fmt.Errorf("failed to write outputs of %s: %w", p.Name, err)
	}
	return nil
}
