package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 720, cfg.JWT.ExpiryHrs)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CANVASS_SERVER_PORT", "9090")
	t.Setenv("CANVASS_STORE_DRIVER", "sqlite")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CANVASS_STORE_DRIVER", "mongo")
	_, err := Load()
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "canvass", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/canvass?sslmode=disable", c.DSN())
}
