package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/config"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("ADMIN_IDS", "100, 200,,")
	t.Setenv("ADMIN_USERNAMES", "@owner,helper")
	t.Setenv("SUPERADMIN", "@owner")
	t.Setenv("AUTO_APPROVE", "false")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, []string{"100", "200"}, cfg.AdminIDs)
	assert.Equal(t, []string{"owner", "helper"}, cfg.AdminUsernames)
	assert.Equal(t, "owner", cfg.SuperAdmin)
	assert.False(t, cfg.AutoApprove)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "redis")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "honeydesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"9090\"\nLOG_LEVEL: debug\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}
