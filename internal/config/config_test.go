package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seka.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", cfg.Addr())
	assert.Equal(t, 10*time.Second, cfg.Game.Countdown())
	assert.Equal(t, 30*time.Second, cfg.Game.TurnTimeout())
	assert.Equal(t, 5, cfg.Game.CommissionPercent)
	assert.Equal(t, "memory", cfg.Ledger.Driver)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
server {
  address = "0.0.0.0"
  port    = 8443
}

game {
  countdown_seconds    = 5
  turn_timeout_seconds = 15
  default_balance      = 250.50
}

ledger {
  driver = "postgres"
  dsn    = "postgres://seka@localhost/seka?sslmode=disable"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8443", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.Game.Countdown())
	assert.Equal(t, 15*time.Second, cfg.Game.TurnTimeout())
	assert.Equal(t, 250.50, cfg.Game.DefaultBalance)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)

	// unset fields fall back to defaults
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5, cfg.Game.CommissionPercent)
	assert.Equal(t, 50, cfg.Game.RoomListLimit)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server {
  port = 8443
}

game {}
ledger {}
`)

	t.Setenv("SEKA_PORT", "7001")
	t.Setenv("SEKA_LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://seka@db/seka")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "postgres://seka@db/seka", cfg.Ledger.DSN)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad port", content: "server {\n  port = 99999\n}\ngame {}\nledger {}\n"},
		{name: "negative countdown", content: "server {}\ngame {\n  countdown_seconds = -1\n}\nledger {}\n"},
		{name: "commission over 100", content: "server {}\ngame {\n  commission_percent = 150\n}\nledger {}\n"},
		{name: "unknown ledger driver", content: "server {}\ngame {}\nledger {\n  driver = \"redis\"\n}\n"},
		{name: "postgres without dsn", content: "server {}\ngame {}\nledger {\n  driver = \"postgres\"\n}\n"},
		{name: "not hcl", content: "{\"json\": true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}
