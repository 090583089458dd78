package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []int{11302, 11623}, cfg.LoopLineIDs)
	assert.Equal(t, 1000.0, cfg.BadAccuracyM)
	assert.Equal(t, 750.0, cfg.ApproachM)
	assert.Equal(t, 0.5, cfg.NearbyStationKM)
	assert.Equal(t, 5*time.Second, cfg.HeaderRotateInterval)
	assert.False(t, cfg.RedisEnabled)
	assert.Nil(t, cfg.WarmLineIDs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOOP_LINE_IDS", "1, 2,3")
	t.Setenv("APPROACH_THRESHOLD_M", "500")
	t.Setenv("HEADER_ROTATE_INTERVAL", "2s")
	t.Setenv("CACHE_WARM_LINES", "11302,11623")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []int{1, 2, 3}, cfg.LoopLineIDs)
	assert.Equal(t, 500.0, cfg.ApproachM)
	assert.Equal(t, 2*time.Second, cfg.HeaderRotateInterval)
	assert.Equal(t, []int{11302, 11623}, cfg.WarmLineIDs)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.RateLimitWhitelist)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HEADER_ROTATE_INTERVAL", "soon")
	t.Setenv("BAD_ACCURACY_THRESHOLD_M", "lots")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.HeaderRotateInterval)
	assert.Equal(t, 1000.0, cfg.BadAccuracyM)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
