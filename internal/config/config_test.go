package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  http_port: 9090\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort != 50051 {
		t.Errorf("GRPCPort = %d, want 50051", cfg.Server.GRPCPort)
	}
	if cfg.Game.BeepUnit != 100*time.Millisecond {
		t.Errorf("BeepUnit = %v, want 100ms", cfg.Game.BeepUnit)
	}
	if cfg.Game.MaxStrikes != 1 {
		t.Errorf("MaxStrikes = %d, want 1", cfg.Game.MaxStrikes)
	}
	if cfg.Database.Enabled {
		t.Error("database should be disabled by default")
	}
	if len(cfg.Rounds.SearchPaths) != 1 || cfg.Rounds.SearchPaths[0] != "rounds" {
		t.Errorf("SearchPaths = %v, want [rounds]", cfg.Rounds.SearchPaths)
	}
}

func TestLoadFileValues(t *testing.T) {
	body := `
game:
  beep_unit: 250ms
  max_strikes: 3
  default_round: training
prop:
  address: 10.0.0.7:502
  unit_id: 4
keypad:
  port: /dev/ttyUSB0
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Game.BeepUnit != 250*time.Millisecond {
		t.Errorf("BeepUnit = %v, want 250ms", cfg.Game.BeepUnit)
	}
	if cfg.Game.MaxStrikes != 3 {
		t.Errorf("MaxStrikes = %d, want 3", cfg.Game.MaxStrikes)
	}
	if cfg.Game.DefaultRound != "training" {
		t.Errorf("DefaultRound = %q, want training", cfg.Game.DefaultRound)
	}
	if cfg.Prop.Address != "10.0.0.7:502" || cfg.Prop.UnitID != 4 {
		t.Errorf("Prop = %+v", cfg.Prop)
	}
	if cfg.Keypad.Port != "/dev/ttyUSB0" || cfg.Keypad.BaudRate != 9600 {
		t.Errorf("Keypad = %+v", cfg.Keypad)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DAB_GAME_MAX_STRIKES", "5")
	t.Setenv("DAB_SERVER_HTTP_PORT", "7070")

	cfg, err := Load(writeConfig(t, "game:\n  max_strikes: 2\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Game.MaxStrikes != 5 {
		t.Errorf("MaxStrikes = %d, want 5", cfg.Game.MaxStrikes)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want 7070", cfg.Server.HTTPPort)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero strikes", "game:\n  max_strikes: 0\n"},
		{"negative beep unit", "game:\n  beep_unit: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() succeeded for a missing file")
	}
}

func TestJWTSecret(t *testing.T) {
	a := AuthConfig{JWTSecretEnv: "DAB_TEST_SECRET"}
	if a.GetJWTSecret() != devSecret {
		t.Errorf("expected dev secret fallback")
	}
	if a.IsProductionReady() {
		t.Error("dev secret must not be production ready")
	}

	t.Setenv("DAB_TEST_SECRET", "0123456789abcdef0123456789abcdef")
	a.GameMasterPasswordHash = "$argon2id$..."
	if !a.IsProductionReady() {
		t.Error("expected production ready with real secret and password hash")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Database: "dab", User: "u", Password: "p"}
	want := "postgres://u:p@db:5432/dab?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
