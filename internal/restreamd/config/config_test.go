package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESTREAMD_STATIC_ADDR", "")
	t.Setenv("RESTREAMD_RESTREAM_ADDR", "")
	t.Setenv("RESTREAMD_ADMIN_ADDR", "")
	t.Setenv("RESTREAMD_MAX_PATHS_COUNT", "")
	t.Setenv("RESTREAMD_MAX_CLIENTS_PER_PATH", "")

	cfg, err := Load("nonexistent.env")
	require.NoError(t, err)
	require.Equal(t, ":8555", cfg.StaticAddr)
	require.Equal(t, ":8554", cfg.RestreamAddr)
	require.Equal(t, ":9090", cfg.AdminAddr)
	require.Equal(t, 0, cfg.MaxPathsCount)
	require.Equal(t, 0, cfg.MaxClientsPerPath)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("RESTREAMD_RESTREAM_ADDR", ":9554")
	t.Setenv("RESTREAMD_MAX_PATHS_COUNT", "10")
	t.Setenv("RESTREAMD_MAX_CLIENTS_PER_PATH", "5")
	t.Setenv("RESTREAMD_USE_TLS", "true")

	cfg, err := Load("nonexistent.env")
	require.NoError(t, err)
	require.Equal(t, ":9554", cfg.RestreamAddr)
	require.Equal(t, 10, cfg.MaxPathsCount)
	require.Equal(t, 5, cfg.MaxClientsPerPath)
	require.True(t, cfg.UseTLS)
}

func TestGetEnvIntFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("RESTREAMD_MAX_PATHS_COUNT", "not-a-number")
	require.Equal(t, 42, getEnvInt("RESTREAMD_MAX_PATHS_COUNT", 42))
}
