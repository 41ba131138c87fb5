package defuse

import (
	"errors"
	"fmt"
	"strings"
)

// BeepEntry is the exported form of a beep profile.
type BeepEntry struct {
	Index     int    `json:"index" yaml:"index"`
	Interval  uint8  `json:"interval" yaml:"interval"`
	DefuseKey string `json:"defuse_key" yaml:"defuse_key"`
}

type MaskEntry struct {
	Index int    `json:"index" yaml:"index"`
	Color Color  `json:"color" yaml:"color"`
	Hex   string `json:"hex" yaml:"hex"`
	Mask  string `json:"mask" yaml:"mask"`
	Value uint8  `json:"value" yaml:"value"`
}

type OpEntry struct {
	Index int          `json:"index" yaml:"index"`
	Color Color        `json:"color" yaml:"color"`
	Hex   string       `json:"hex" yaml:"hex"`
	Op    CodeOperator `json:"op" yaml:"op"`
}

// Tables is a serialisable copy of every table.
type Tables struct {
	Beeps  []BeepEntry `json:"beeps" yaml:"beeps"`
	Masks  []MaskEntry `json:"masks" yaml:"masks"`
	Ops    []OpEntry   `json:"ops" yaml:"ops"`
	Keypad []string    `json:"keypad" yaml:"keypad"`
}

// Snapshot copies all tables into a Tables value.
func Snapshot() Tables {
	t := Tables{
		Beeps:  make([]BeepEntry, 0, BeepCount),
		Masks:  make([]MaskEntry, 0, MaskCount),
		Ops:    make([]OpEntry, 0, OpCount),
		Keypad: make([]string, 0, Rows),
	}

	for i, b := range beeps {
		t.Beeps = append(t.Beeps, BeepEntry{Index: i, Interval: b.Interval, DefuseKey: string(b.DefuseKey)})
	}
	for i, m := range masks {
		t.Masks = append(t.Masks, MaskEntry{
			Index: i,
			Color: m.Color,
			Hex:   m.Color.String(),
			Mask:  fmt.Sprintf("0x%02X", m.Mask),
			Value: m.Mask,
		})
	}
	for i, o := range ops {
		t.Ops = append(t.Ops, OpEntry{Index: i, Color: o.Color, Hex: o.Color.String(), Op: o.Op})
	}
	for _, row := range keys {
		t.Keypad = append(t.Keypad, string(row[:]))
	}

	return t
}

// Check verifies the table invariants and reports every violation found.
func Check() error {
	var errs []error

	for i, m := range masks {
		if m.Mask == 0 {
			errs = append(errs, fmt.Errorf("mask %d is zero", i))
		}
	}

	for i, o := range ops {
		if !o.Op.Valid() {
			errs = append(errs, fmt.Errorf("op %d has invalid operator %d", i, uint8(o.Op)))
		}
	}

	const want = "1234567890*#"
	seen := make(map[byte]bool, Rows*Cols)
	for r := range keys {
		for c := range keys[r] {
			k := keys[r][c]
			if seen[k] {
				errs = append(errs, fmt.Errorf("key %q duplicated at row %d col %d", k, r, c))
			}
			seen[k] = true
			if strings.IndexByte(want, k) < 0 {
				errs = append(errs, fmt.Errorf("unexpected key %q at row %d col %d", k, r, c))
			}
		}
	}
	if len(seen) != len(want) {
		errs = append(errs, fmt.Errorf("keypad has %d distinct keys, want %d", len(seen), len(want)))
	}

	for i := 1; i < len(beeps); i++ {
		if beeps[i].Interval <= beeps[i-1].Interval {
			errs = append(errs, fmt.Errorf("beep %d interval %d not greater than beep %d interval %d",
				i, beeps[i].Interval, i-1, beeps[i-1].Interval))
		}
	}

	for i, b := range beeps {
		if !IsKey(b.DefuseKey) {
			errs = append(errs, fmt.Errorf("beep %d defuse key %q is not on the keypad", i, b.DefuseKey))
		}
	}

	return errors.Join(errs...)
}
