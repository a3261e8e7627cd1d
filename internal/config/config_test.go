package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Chat.AllowSelfMessages)
	assert.True(t, cfg.Chat.AllowEmptyMessages)
	assert.Equal(t, 256, cfg.Chat.SendQueueSize)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHAT_ALLOW_SELF_MESSAGES", "false")
	t.Setenv("CHAT_SEND_QUEUE_SIZE", "64")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Chat.AllowSelfMessages)
	assert.Equal(t, 64, cfg.Chat.SendQueueSize)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
}

func TestLoad_InvalidQueueSize(t *testing.T) {
	t.Setenv("CHAT_SEND_QUEUE_SIZE", "-1")

	_, err := Load()
	assert.Error(t, err)
}
