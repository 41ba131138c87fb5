package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
	Rounds   RoundsConfig   `mapstructure:"rounds"`
	Prop     PropConfig     `mapstructure:"prop"`
	Keypad   KeypadConfig   `mapstructure:"keypad"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	GRPCPort        int           `mapstructure:"grpc_port"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AuthConfig struct {
	JWTSecretEnv           string        `mapstructure:"jwt_secret_env"`
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	GameMasterPasswordHash string        `mapstructure:"gamemaster_password_hash"`
}

// GameConfig tunes the controller clock. BeepUnit is the length of one
// interval unit in the beep table.
type GameConfig struct {
	BeepUnit      time.Duration `mapstructure:"beep_unit"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	DisplayPeriod time.Duration `mapstructure:"display_period"`
	MaxStrikes    int           `mapstructure:"max_strikes"`
	DefaultRound  string        `mapstructure:"default_round"`
}

type RoundsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

// PropConfig points at the Modbus TCP I/O board inside the prop.
// An empty Address disables hardware I/O.
type PropConfig struct {
	Address      string        `mapstructure:"address"`
	UnitID       int           `mapstructure:"unit_id"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BeepPulse    time.Duration `mapstructure:"beep_pulse"`
}

type KeypadConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "dab")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_connections", 4)

	v.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.gamemaster_password_hash", "")

	v.SetDefault("game.beep_unit", "100ms")
	v.SetDefault("game.tick_interval", "50ms")
	v.SetDefault("game.display_period", "1s")
	v.SetDefault("game.max_strikes", 1)
	v.SetDefault("game.default_round", "")

	v.SetDefault("rounds.search_paths", []string{"rounds"})

	v.SetDefault("prop.address", "")
	v.SetDefault("prop.unit_id", 1)
	v.SetDefault("prop.timeout", "500ms")
	v.SetDefault("prop.poll_interval", "50ms")
	v.SetDefault("prop.beep_pulse", "60ms")

	v.SetDefault("keypad.port", "")
	v.SetDefault("keypad.baud_rate", 9600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// Load reads the YAML file at path. Every key can be overridden with a
// DAB_ environment variable, e.g. DAB_GAME_MAX_STRIKES=3.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("DAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate rejects values the controller cannot run with.
func (c *Config) Validate() error {
	if c.Game.BeepUnit <= 0 {
		return fmt.Errorf("game.beep_unit must be positive")
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive")
	}
	if c.Game.DisplayPeriod <= 0 {
		return fmt.Errorf("game.display_period must be positive")
	}
	if c.Game.MaxStrikes < 1 {
		return fmt.Errorf("game.max_strikes must be at least 1")
	}
	if c.Prop.Address != "" && c.Prop.PollInterval <= 0 {
		return fmt.Errorf("prop.poll_interval must be positive")
	}
	if c.Prop.Address != "" && (c.Prop.UnitID < 0 || c.Prop.UnitID > 247) {
		return fmt.Errorf("prop.unit_id must be between 0 and 247")
	}
	if c.Keypad.Port != "" && c.Keypad.BaudRate <= 0 {
		return fmt.Errorf("keypad.baud_rate must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

const devSecret = "dev-secret-change-in-production-min-32-chars"

// GetJWTSecret reads the signing secret from the configured env var.
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET"
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		return devSecret
	}
	return secret
}

func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devSecret && len(secret) >= 32 && a.GameMasterPasswordHash != ""
}
