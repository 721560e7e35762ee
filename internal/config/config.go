// Package config loads server configuration from an HCL file with
// environment variable overrides for deployment settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"
)

// Config represents the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Ledger LedgerSettings `hcl:"ledger,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the game parameters applied to every room.
type GameSettings struct {
	CountdownSeconds   int     `hcl:"countdown_seconds,optional"`
	TurnTimeoutSeconds int     `hcl:"turn_timeout_seconds,optional"`
	CommissionPercent  int     `hcl:"commission_percent,optional"`
	RoomListLimit      int     `hcl:"room_list_limit,optional"`
	DefaultBalance     float64 `hcl:"default_balance,optional"`
}

// LedgerSettings selects and configures the balance store.
type LedgerSettings struct {
	Driver string `hcl:"driver,optional"` // "memory" or "postgres"
	DSN    string `hcl:"dsn,optional"`
}

// envOverrides are deployment-level settings that beat the config file.
type envOverrides struct {
	Address  string `env:"SEKA_ADDR"`
	Port     int    `env:"SEKA_PORT"`
	LogLevel string `env:"SEKA_LOG_LEVEL"`
	DSN      string `env:"DATABASE_URL"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     9090,
			LogLevel: "info",
		},
		Game: GameSettings{
			CountdownSeconds:   10,
			TurnTimeoutSeconds: 30,
			CommissionPercent:  5,
			RoomListLimit:      50,
			DefaultBalance:     1000,
		},
		Ledger: LedgerSettings{
			Driver: "memory",
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults; either way environment overrides are applied afterwards.
func Load(filename string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		config = &Config{}
		diags = gohcl.DecodeBody(file.Body, nil, config)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		applyDefaults(config)
	}

	var env envOverrides
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.Address != "" {
		config.Server.Address = env.Address
	}
	if env.Port != 0 {
		config.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		config.Server.LogLevel = env.LogLevel
	}
	if env.DSN != "" {
		config.Ledger.Driver = "postgres"
		config.Ledger.DSN = env.DSN
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills in values a partial config file left out.
func applyDefaults(c *Config) {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Game.CountdownSeconds == 0 {
		c.Game.CountdownSeconds = d.Game.CountdownSeconds
	}
	if c.Game.TurnTimeoutSeconds == 0 {
		c.Game.TurnTimeoutSeconds = d.Game.TurnTimeoutSeconds
	}
	if c.Game.CommissionPercent == 0 {
		c.Game.CommissionPercent = d.Game.CommissionPercent
	}
	if c.Game.RoomListLimit == 0 {
		c.Game.RoomListLimit = d.Game.RoomListLimit
	}
	if c.Game.DefaultBalance == 0 {
		c.Game.DefaultBalance = d.Game.DefaultBalance
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = d.Ledger.Driver
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.CountdownSeconds <= 0 {
		return fmt.Errorf("countdown_seconds must be positive, got %d", c.Game.CountdownSeconds)
	}
	if c.Game.TurnTimeoutSeconds <= 0 {
		return fmt.Errorf("turn_timeout_seconds must be positive, got %d", c.Game.TurnTimeoutSeconds)
	}
	if c.Game.CommissionPercent < 0 || c.Game.CommissionPercent > 100 {
		return fmt.Errorf("commission_percent must be between 0 and 100, got %d", c.Game.CommissionPercent)
	}
	if c.Game.DefaultBalance < 0 {
		return fmt.Errorf("default_balance must not be negative, got %v", c.Game.DefaultBalance)
	}
	switch c.Ledger.Driver {
	case "memory":
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger driver %q requires a dsn", c.Ledger.Driver)
		}
	default:
		return fmt.Errorf("unknown ledger driver: %s", c.Ledger.Driver)
	}
	return nil
}

// Addr returns the full listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Countdown returns the pre-round countdown as a duration.
func (g GameSettings) Countdown() time.Duration {
	return time.Duration(g.CountdownSeconds) * time.Second
}

// TurnTimeout returns the per-turn acting window as a duration.
func (g GameSettings) TurnTimeout() time.Duration {
	return time.Duration(g.TurnTimeoutSeconds) * time.Second
}
