package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitfolio/engine/internal/monitoring"
)

func newFallbackLimiter(t *testing.T, config Config) *RateLimiter {
	t.Helper()
	client, err := NewRedisClient("", "", 0)
	require.NoError(t, err)
	require.False(t, client.IsEnabled())
	return NewRateLimiter(client, config, monitoring.NewMetrics())
}

func TestAllowIPFallback(t *testing.T) {
	rl := newFallbackLimiter(t, DefaultConfig())

	result, err := rl.AllowIP(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, DefaultConfig().IPLimitPerMin, result.Limit)
}

func TestFallbackBlocksAfterBurst(t *testing.T) {
	config := Config{IPLimitPerMin: 2, GenerateLimitPerHr: 2, BurstMultiplier: 1}
	rl := newFallbackLimiter(t, config)

	// Burst floor is 5 tokens; the sixth immediate request must be denied.
	var lastAllowed bool
	for i := 0; i < 6; i++ {
		result, err := rl.AllowIP(context.Background(), "10.0.0.2")
		require.NoError(t, err)
		lastAllowed = result.Allowed
	}
	assert.False(t, lastAllowed)
}

func TestFallbackKeysAreIndependent(t *testing.T) {
	config := Config{IPLimitPerMin: 1, GenerateLimitPerHr: 1, BurstMultiplier: 1}
	rl := newFallbackLimiter(t, config)

	for i := 0; i < 6; i++ {
		rl.AllowIP(context.Background(), "10.0.0.3")
	}
	blocked, err := rl.AllowIP(context.Background(), "10.0.0.3")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	fresh, err := rl.AllowIP(context.Background(), "10.0.0.4")
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
}

func TestAllowGenerationUsesOwnBucket(t *testing.T) {
	rl := newFallbackLimiter(t, DefaultConfig())

	ipResult, err := rl.AllowIP(context.Background(), "alice")
	require.NoError(t, err)
	genResult, err := rl.AllowGeneration(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().IPLimitPerMin, ipResult.Limit)
	assert.Equal(t, DefaultConfig().GenerateLimitPerHr, genResult.Limit)
}

func TestGetStats(t *testing.T) {
	rl := newFallbackLimiter(t, DefaultConfig())
	rl.AllowIP(context.Background(), "10.0.0.5")

	stats := rl.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["fallback_limiters"])
}
