// Package defuse holds the fixed lookup tables of the prop: beep profiles,
// colour masks, colour operators and the keypad layout.
//
// The tables are unexported arrays. Accessors return values, so callers get
// copies and the tables stay constant for the life of the process.
package defuse

import "fmt"

// Color is the RGB value shown on the prop LED.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// BeepProfile ties a beep interval to the key that defuses it.
// Interval is in beep units; the controller decides how long a unit is.
type BeepProfile struct {
	Interval  uint8 `json:"interval" yaml:"interval"`
	DefuseKey byte  `json:"-" yaml:"-"`
}

// MaskProfile maps an LED colour to the byte it stands for.
type MaskProfile struct {
	Color `yaml:",inline"`
	Mask  uint8 `json:"mask" yaml:"mask"`
}

// OpProfile maps an LED colour to a boolean operator.
type OpProfile struct {
	Color `yaml:",inline"`
	Op    CodeOperator `json:"op" yaml:"op"`
}

const (
	Rows = 4
	Cols = 3

	BeepCount = 4
	MaskCount = 4
	OpCount   = 3
)

// TODO: time the beeps on the real buzzer and retune the intervals.
var beeps = [BeepCount]BeepProfile{
	{Interval: 10, DefuseKey: '*'},
	{Interval: 15, DefuseKey: '7'},
	{Interval: 20, DefuseKey: '0'},
	{Interval: 25, DefuseKey: '3'},
}

var masks = [MaskCount]MaskProfile{
	{Color: Color{255, 0, 0}, Mask: 0xAA},
	{Color: Color{0, 255, 0}, Mask: 0x55},
	{Color: Color{0, 0, 255}, Mask: 0xF8},
	{Color: Color{200, 0, 200}, Mask: 0x1B},
}

// The red/NOT entry is disabled.
var ops = [OpCount]OpProfile{
	// {Color: Color{255, 0, 0}, Op: OpNot},
	{Color: Color{0, 255, 0}, Op: OpAnd},
	{Color: Color{0, 0, 255}, Op: OpOr},
	{Color: Color{200, 0, 200}, Op: OpXor},
}

var keys = [Rows][Cols]byte{
	{'1', '2', '3'},
	{'4', '5', '6'},
	{'7', '8', '9'},
	{'*', '0', '#'},
}

// Beep returns the i-th beep profile. It panics if i is out of range.
func Beep(i int) BeepProfile { return beeps[i] }

// Mask returns the i-th mask profile. It panics if i is out of range.
func Mask(i int) MaskProfile { return masks[i] }

// Op returns the i-th operator profile. It panics if i is out of range.
func Op(i int) OpProfile { return ops[i] }

// Key returns the keypad character at row, col. It panics if either is out of range.
func Key(row, col int) byte { return keys[row][col] }

func Beeps() [BeepCount]BeepProfile { return beeps }

func Masks() [MaskCount]MaskProfile { return masks }

func Ops() [OpCount]OpProfile { return ops }

func Keypad() [Rows][Cols]byte { return keys }

// KeyPosition finds k on the keypad.
func KeyPosition(k byte) (row, col int, ok bool) {
	for r := range keys {
		for c := range keys[r] {
			if keys[r][c] == k {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// IsKey reports whether k is printed on the keypad.
func IsKey(k byte) bool {
	_, _, ok := KeyPosition(k)
	return ok
}

// BeepByKey returns the index of the beep profile defused by k.
func BeepByKey(k byte) (int, bool) {
	for i, b := range beeps {
		if b.DefuseKey == k {
			return i, true
		}
	}
	return -1, false
}

// MaskByColor returns the index of the mask shown as c.
func MaskByColor(c Color) (int, bool) {
	for i, m := range masks {
		if m.Color == c {
			return i, true
		}
	}
	return -1, false
}

// OpByColor returns the index of the operator shown as c.
func OpByColor(c Color) (int, bool) {
	for i, o := range ops {
		if o.Color == c {
			return i, true
		}
	}
	return -1, false
}
