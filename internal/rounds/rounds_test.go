package rounds

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/tomblanch118/DAB/internal/defuse"
)

func newLoader(t *testing.T, files map[string]string) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	l, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}
	return l, dir
}

func TestDefaultRound(t *testing.T) {
	r := Default()
	if err := r.Check(); err != nil {
		t.Fatalf("Default().Check() = %v", err)
	}
	if got := r.Expected(); got != 0xA8 {
		t.Errorf("Expected() = 0x%02X, want 0xA8", got)
	}
	if r.DefuseKey() != '*' {
		t.Errorf("DefuseKey() = %q, want *", r.DefuseKey())
	}
	seq := r.Sequence()
	if seq[0] != (defuse.Color{B: 255}) || seq[1] != (defuse.Color{G: 255}) || seq[2] != (defuse.Color{R: 255}) {
		t.Errorf("Sequence() = %v", seq)
	}
}

func TestLoadJSON(t *testing.T) {
	l, _ := newLoader(t, map[string]string{
		"purple.json": `{"name":"purple","countdown_seconds":120,"beep":2,"beep_mode":"TIMEBASED","left":3,"op":2,"right":2}`,
	})

	r, err := l.Load("purple")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if r.BeepMode != defuse.BeepTimeBased {
		t.Errorf("BeepMode = %v, want TIMEBASED", r.BeepMode)
	}
	if r.Expected() != 0x1B^0xF8 {
		t.Errorf("Expected() = 0x%02X, want 0x%02X", r.Expected(), 0x1B^0xF8)
	}
	if r.DefuseKey() != '0' {
		t.Errorf("DefuseKey() = %q, want 0", r.DefuseKey())
	}
}

func TestLoadYAML(t *testing.T) {
	l, _ := newLoader(t, map[string]string{
		"training.yaml": "name: training\ncountdown_seconds: 600\nbeep: 3\nleft: 0\nop: 1\nright: 1\nmotion_armed: false\nmax_strikes: 3\n",
	})

	r, err := l.Load("training")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if r.MaxStrikes != 3 || r.MotionArmed {
		t.Errorf("round = %+v", r)
	}
	if r.Expected() != 0xAA|0x55 {
		t.Errorf("Expected() = 0x%02X, want 0xFF", r.Expected())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"oprange", `{"name":"oprange","countdown_seconds":60,"beep":0,"left":0,"op":3,"right":1}`},
		{"short", `{"name":"short","countdown_seconds":5,"beep":0,"left":0,"op":0,"right":1}`},
		{"extra", `{"name":"extra","countdown_seconds":60,"beep":0,"left":0,"op":0,"right":1,"wires":8}`},
		{"mode", `{"name":"mode","countdown_seconds":60,"beep":0,"beep_mode":"LOUD","left":0,"op":0,"right":1}`},
		{"missing", `{"name":"missing","countdown_seconds":60}`},
	}

	files := make(map[string]string)
	for _, tt := range tests {
		files[tt.name+".json"] = tt.body
	}
	l, _ := newLoader(t, files)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Load(tt.name); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoadNameMismatch(t *testing.T) {
	l, _ := newLoader(t, map[string]string{
		"a.json": `{"name":"b","countdown_seconds":60,"beep":0,"left":0,"op":0,"right":1}`,
	})
	if _, err := l.Load("a"); err == nil {
		t.Error("Load() accepted a file whose name does not match")
	}
}

func TestLoadNotFound(t *testing.T) {
	l, _ := newLoader(t, nil)

	if _, err := l.Load("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(ghost) error = %v, want ErrNotFound", err)
	}
	if _, err := l.Load("../etc/passwd"); err == nil {
		t.Error("Load() accepted a path")
	}

	r, err := l.Load("default")
	if err != nil || r.Name != "default" {
		t.Errorf("Load(default) = %+v, %v", r, err)
	}
}

func TestLoadCaches(t *testing.T) {
	l, dir := newLoader(t, map[string]string{
		"cached.json": `{"name":"cached","countdown_seconds":60,"beep":1,"left":0,"op":0,"right":1}`,
	})
	if _, err := l.Load("cached"); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "cached.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load("cached"); err != nil {
		t.Errorf("cached Load() failed: %v", err)
	}

	l.ClearCache()
	if _, err := l.Load("cached"); err == nil {
		t.Error("Load() after ClearCache should fail once the file is gone")
	}
}

func TestList(t *testing.T) {
	l, _ := newLoader(t, map[string]string{
		"one.json":  "{}",
		"two.yml":   "",
		"notes.txt": "",
	})
	names, err := l.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "one" || names[1] != "two" {
		t.Errorf("List() = %v, want [one two]", names)
	}
}

func TestCheck(t *testing.T) {
	r := Default()
	r.Right = defuse.MaskCount
	if err := r.Check(); err == nil {
		t.Error("Check() accepted an out-of-range mask")
	}
	r = Default()
	r.BeepMode = defuse.BeepMode(7)
	if err := r.Check(); err == nil {
		t.Error("Check() accepted an invalid beep mode")
	}
}

func TestShippedRounds(t *testing.T) {
	l, err := NewLoader([]string{"../../rounds"})
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}

	names, err := l.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no shipped rounds found")
	}
	for _, name := range names {
		if _, err := l.Load(name); err != nil {
			t.Errorf("Load(%q) failed: %v", name, err)
		}
	}
}
