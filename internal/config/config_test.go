package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "canvas-adapter", cfg.ServiceName)
	assert.Equal(t, 9040, cfg.Port)
	assert.Equal(t, "canvas", cfg.CachePrefix)
	assert.Equal(t, 60*time.Minute, cfg.SecretRefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.SecretFetchTimeout)
	assert.Equal(t, 3, cfg.SecretFetchAttempts)
	assert.Equal(t, time.Second, cfg.SecretFetchBackoff)
	assert.Equal(t, 7*24*time.Hour, cfg.CanvasTTL)
	assert.Empty(t, cfg.SecretFallbackJSON)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SECRET_REFRESH_INTERVAL", "30m")
	t.Setenv("CANVAS_TTL", "24h")
	t.Setenv("SP_DC", "cookie-value")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.SecretRefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.CanvasTTL)
	assert.Equal(t, "cookie-value", cfg.SPDCCookie)
}
