package defuse

import "fmt"

// CodeOperator is the boolean operator a player applies to two masks.
type CodeOperator uint8

const (
	OpNot CodeOperator = iota
	OpAnd
	OpOr
	OpXor
)

var operatorNames = [...]string{"NOT", "AND", "OR", "XOR"}

func (o CodeOperator) String() string {
	if o.Valid() {
		return operatorNames[o]
	}
	return fmt.Sprintf("CodeOperator(%d)", uint8(o))
}

// Valid reports whether o is one of the four declared operators.
func (o CodeOperator) Valid() bool {
	return o <= OpXor
}

// Apply evaluates a OP b. NOT is unary and ignores b.
func (o CodeOperator) Apply(a, b uint8) uint8 {
	switch o {
	case OpNot:
		return ^a
	case OpAnd:
		return a & b
	case OpOr:
		return a | b
	case OpXor:
		return a ^ b
	default:
		return 0
	}
}

func (o CodeOperator) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid code operator: %d", uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *CodeOperator) UnmarshalText(text []byte) error {
	for i, name := range operatorNames {
		if name == string(text) {
			*o = CodeOperator(i)
			return nil
		}
	}
	return fmt.Errorf("unknown code operator: %q", text)
}

// BoomReason says why the bomb went off.
type BoomReason uint8

const (
	BoomTime BoomReason = iota
	BoomMotion
	BoomDefuseFail
)

var boomNames = [...]string{"TIME", "MOTION", "DEFUSEFAIL"}

func (r BoomReason) String() string {
	if int(r) < len(boomNames) {
		return boomNames[r]
	}
	return fmt.Sprintf("BoomReason(%d)", uint8(r))
}

func (r BoomReason) MarshalText() ([]byte, error) {
	if int(r) >= len(boomNames) {
		return nil, fmt.Errorf("invalid boom reason: %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *BoomReason) UnmarshalText(text []byte) error {
	for i, name := range boomNames {
		if name == string(text) {
			*r = BoomReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown boom reason: %q", text)
}

// BeepMode selects how the beep cadence evolves while the timer runs.
type BeepMode uint8

const (
	BeepNormal BeepMode = iota
	BeepTimeBased
	BeepStop
)

var beepModeNames = [...]string{"NORMAL", "TIMEBASED", "STOP"}

func (m BeepMode) String() string {
	if int(m) < len(beepModeNames) {
		return beepModeNames[m]
	}
	return fmt.Sprintf("BeepMode(%d)", uint8(m))
}

func (m BeepMode) MarshalText() ([]byte, error) {
	if int(m) >= len(beepModeNames) {
		return nil, fmt.Errorf("invalid beep mode: %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *BeepMode) UnmarshalText(text []byte) error {
	for i, name := range beepModeNames {
		if name == string(text) {
			*m = BeepMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown beep mode: %q", text)
}
