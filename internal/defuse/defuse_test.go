package defuse

import (
	"encoding/json"
	"testing"
)

func TestCheck(t *testing.T) {
	if err := Check(); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestMasksNonZero(t *testing.T) {
	want := []uint8{0xAA, 0x55, 0xF8, 0x1B}
	for i, m := range Masks() {
		if m.Mask == 0 {
			t.Errorf("mask %d is zero", i)
		}
		if m.Mask != want[i] {
			t.Errorf("mask %d = 0x%02X, want 0x%02X", i, m.Mask, want[i])
		}
	}
}

func TestOpsUseDeclaredOperators(t *testing.T) {
	want := []CodeOperator{OpAnd, OpOr, OpXor}
	for i, o := range Ops() {
		if !o.Op.Valid() {
			t.Errorf("op %d has invalid operator %v", i, o.Op)
		}
		if o.Op != want[i] {
			t.Errorf("op %d = %v, want %v", i, o.Op, want[i])
		}
	}
}

func TestNotEntryDisabled(t *testing.T) {
	if _, ok := OpByColor(Color{255, 0, 0}); ok {
		t.Error("red should not map to an operator")
	}
	for _, o := range Ops() {
		if o.Op == OpNot {
			t.Error("NOT should not appear in the operator table")
		}
	}
}

func TestKeypadLayout(t *testing.T) {
	pad := Keypad()
	if len(pad) != 4 || len(pad[0]) != 3 {
		t.Fatalf("keypad is %dx%d, want 4x3", len(pad), len(pad[0]))
	}

	seen := make(map[byte]int)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			seen[Key(r, c)]++
		}
	}
	for _, k := range []byte("1234567890*#") {
		if seen[k] != 1 {
			t.Errorf("key %q appears %d times, want 1", k, seen[k])
		}
	}
	if len(seen) != 12 {
		t.Errorf("keypad holds %d distinct keys, want 12", len(seen))
	}
}

func TestBeepIntervalsIncrease(t *testing.T) {
	want := []uint8{10, 15, 20, 25}
	b := Beeps()
	for i := range b {
		if b[i].Interval != want[i] {
			t.Errorf("beep %d interval = %d, want %d", i, b[i].Interval, want[i])
		}
		if i > 0 && b[i].Interval <= b[i-1].Interval {
			t.Errorf("beep %d interval %d not greater than %d", i, b[i].Interval, b[i-1].Interval)
		}
	}
}

func TestTablesAreCopies(t *testing.T) {
	m := Masks()
	m[0].Mask = 0
	if Mask(0).Mask != 0xAA {
		t.Fatal("mutating a returned table changed the package table")
	}

	k := Keypad()
	k[0][0] = 'X'
	if Key(0, 0) != '1' {
		t.Fatal("mutating the returned keypad changed the package table")
	}
}

func TestIndexOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Op(3) did not panic")
		}
	}()
	_ = Op(OpCount)
}

func TestApply(t *testing.T) {
	tests := []struct {
		op   CodeOperator
		a, b uint8
		want uint8
	}{
		{OpNot, 0xAA, 0xFF, 0x55},
		{OpAnd, 0xAA, 0xF8, 0xA8},
		{OpOr, 0x55, 0x1B, 0x5F},
		{OpXor, 0xAA, 0x55, 0xFF},
		{OpXor, 0xF8, 0x1B, 0xE3},
		{CodeOperator(9), 0xFF, 0xFF, 0x00},
	}

	for _, tt := range tests {
		if got := tt.op.Apply(tt.a, tt.b); got != tt.want {
			t.Errorf("%v.Apply(0x%02X, 0x%02X) = 0x%02X, want 0x%02X", tt.op, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLookups(t *testing.T) {
	if i, ok := BeepByKey('0'); !ok || i != 2 {
		t.Errorf("BeepByKey('0') = %d, %v; want 2, true", i, ok)
	}
	if _, ok := BeepByKey('5'); ok {
		t.Error("BeepByKey('5') should not match")
	}
	if i, ok := MaskByColor(Color{200, 0, 200}); !ok || i != 3 {
		t.Errorf("MaskByColor(purple) = %d, %v; want 3, true", i, ok)
	}
	if i, ok := OpByColor(Color{200, 0, 200}); !ok || i != 2 {
		t.Errorf("OpByColor(purple) = %d, %v; want 2, true", i, ok)
	}
	if r, c, ok := KeyPosition('#'); !ok || r != 3 || c != 2 {
		t.Errorf("KeyPosition('#') = %d, %d, %v; want 3, 2, true", r, c, ok)
	}
	if IsKey('A') {
		t.Error("IsKey('A') = true")
	}
}

func TestEnumText(t *testing.T) {
	var op CodeOperator
	if err := op.UnmarshalText([]byte("XOR")); err != nil || op != OpXor {
		t.Errorf("UnmarshalText(XOR) = %v, %v", op, err)
	}
	if err := op.UnmarshalText([]byte("NAND")); err == nil {
		t.Error("UnmarshalText(NAND) should fail")
	}
	if OpXor.String() != "XOR" || BoomDefuseFail.String() != "DEFUSEFAIL" || BeepTimeBased.String() != "TIMEBASED" {
		t.Error("unexpected enum names")
	}
	if CodeOperator(7).String() != "CodeOperator(7)" {
		t.Errorf("CodeOperator(7).String() = %s", CodeOperator(7).String())
	}
}

func TestSnapshotJSON(t *testing.T) {
	data, err := json.Marshal(Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back struct {
		Beeps []struct {
			DefuseKey string `json:"defuse_key"`
		} `json:"beeps"`
		Ops []struct {
			Op string `json:"op"`
		} `json:"ops"`
		Masks []struct {
			Mask string `json:"mask"`
		} `json:"masks"`
		Keypad []string `json:"keypad"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.Beeps[0].DefuseKey != "*" {
		t.Errorf("beep 0 key = %q, want *", back.Beeps[0].DefuseKey)
	}
	if back.Ops[2].Op != "XOR" {
		t.Errorf("op 2 = %q, want XOR", back.Ops[2].Op)
	}
	if back.Masks[2].Mask != "0xF8" {
		t.Errorf("mask 2 = %q, want 0xF8", back.Masks[2].Mask)
	}
	if back.Keypad[3] != "*0#" {
		t.Errorf("keypad row 3 = %q, want *0#", back.Keypad[3])
	}
}
