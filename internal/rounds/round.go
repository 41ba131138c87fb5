// Package rounds loads the round definitions a game master arms the bomb with.
package rounds

import (
	"fmt"
	"time"

	"github.com/tomblanch118/DAB/internal/defuse"
)

// Round picks one entry from each table. Left and Right index the mask
// table, Op the operator table and Beep the beep table.
type Round struct {
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	CountdownSeconds int             `json:"countdown_seconds"`
	Beep             int             `json:"beep"`
	BeepMode         defuse.BeepMode `json:"beep_mode"`
	Left             int             `json:"left"`
	Op               int             `json:"op"`
	Right            int             `json:"right"`
	MotionArmed      bool            `json:"motion_armed"`
	MaxStrikes       int             `json:"max_strikes,omitempty"`
}

// Default is used when no round file is configured.
func Default() Round {
	return Round{
		Name:             "default",
		Description:      "Blue AND red, defuse on the fastest beep",
		CountdownSeconds: 300,
		Beep:             0,
		BeepMode:         defuse.BeepNormal,
		Left:             2,
		Op:               0,
		Right:            0,
		MotionArmed:      true,
	}
}

// Check range-checks every table index.
func (r Round) Check() error {
	if r.Name == "" {
		return fmt.Errorf("round has no name")
	}
	if r.CountdownSeconds <= 0 {
		return fmt.Errorf("round %s: countdown must be positive", r.Name)
	}
	if r.Beep < 0 || r.Beep >= defuse.BeepCount {
		return fmt.Errorf("round %s: beep index %d out of range", r.Name, r.Beep)
	}
	if r.Left < 0 || r.Left >= defuse.MaskCount {
		return fmt.Errorf("round %s: left mask index %d out of range", r.Name, r.Left)
	}
	if r.Right < 0 || r.Right >= defuse.MaskCount {
		return fmt.Errorf("round %s: right mask index %d out of range", r.Name, r.Right)
	}
	if r.Op < 0 || r.Op >= defuse.OpCount {
		return fmt.Errorf("round %s: op index %d out of range", r.Name, r.Op)
	}
	if r.BeepMode > defuse.BeepStop {
		return fmt.Errorf("round %s: invalid beep mode %d", r.Name, r.BeepMode)
	}
	if r.MaxStrikes < 0 {
		return fmt.Errorf("round %s: max_strikes must not be negative", r.Name)
	}
	return nil
}

func (r Round) Countdown() time.Duration {
	return time.Duration(r.CountdownSeconds) * time.Second
}

// Expected is the switch byte that defuses the round.
func (r Round) Expected() uint8 {
	op := defuse.Op(r.Op).Op
	return op.Apply(defuse.Mask(r.Left).Mask, defuse.Mask(r.Right).Mask)
}

func (r Round) DefuseKey() byte {
	return defuse.Beep(r.Beep).DefuseKey
}

// Sequence is the colour cycle shown on the LED: left mask, operator, right mask.
func (r Round) Sequence() [3]defuse.Color {
	return [3]defuse.Color{
		defuse.Mask(r.Left).Color,
		defuse.Op(r.Op).Color,
		defuse.Mask(r.Right).Color,
	}
}
