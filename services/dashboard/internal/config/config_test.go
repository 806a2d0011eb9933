package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://jsonfakery.com/jobs", cfg.JobsAPIURL)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.JobsAPITimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JOBS_API_KEY", "secret")
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("JOBS_API_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.JobsAPIKey)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.JobsAPITimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}
