package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := fromEnv(envMap(map[string]string{"AUTH_JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "contests", cfg.ContestCollection)
	assert.Equal(t, "voting_stats", cfg.VotingStatsCollection)
	assert.Equal(t, time.Minute, cfg.LifecycleInterval)
	assert.Equal(t, 8, cfg.LifecycleConcurrency)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Len(t, cfg.JWTConfigs, 1)
	assert.Equal(t, "photo-contest-auth", cfg.JWTConfigs[0].Issuer)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := fromEnv(envMap(map[string]string{
		"AUTH_JWT_SECRET":         "a",
		"AUTH_SERVICE_JWT_SECRET": "b",
		"AUTH_SERVICE_JWT_ISSUER": "scheduler",
		"LIFECYCLE_INTERVAL":      "15s",
		"LIFECYCLE_CONCURRENCY":   "nope",
		"API_ALLOWED_ORIGINS":     "https://a.example, ,https://b.example",
		"MONGO_CONNECT_TIMEOUT":   "-1s",
	}))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.LifecycleInterval)
	assert.Equal(t, 8, cfg.LifecycleConcurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	require.Len(t, cfg.JWTConfigs, 2)
	assert.Equal(t, "scheduler", cfg.JWTConfigs[1].Issuer)
}

func TestFromEnvRequiresSecret(t *testing.T) {
	_, err := fromEnv(envMap(nil))
	assert.ErrorIs(t, err, errNoJWTSecret)
}
