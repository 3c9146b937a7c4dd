package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// No config file in the test working directory; Load falls back to
	// defaults.
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.PingPeriod)
	assert.Equal(t, 30*time.Second, cfg.PongWait)
	assert.Equal(t, 2*time.Minute, cfg.QueueTTL)
	assert.Equal(t, 30*time.Second, cfg.BuddyPromoteAfter)
	assert.True(t, cfg.EndOnUnreachable)
	assert.Equal(t, 10000, cfg.MaxConnections)
}
