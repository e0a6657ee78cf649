package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "PUBLISH_CONCURRENCY", "RELAY_TIMEOUT", "REQUIRE_SUBSCRIPTION", "SWEEP_SCHEDULE"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.PublishConcurrency)
	assert.Equal(t, 10*time.Second, cfg.RelayTimeout)
	assert.False(t, cfg.RequireSubscription)
	assert.Equal(t, "@every 1m", cfg.SweepSchedule)
	assert.Equal(t, 60*time.Second, cfg.AuthMaxSkew)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PUBLISH_CONCURRENCY", "3")
	t.Setenv("RELAY_TIMEOUT", "2s")
	t.Setenv("RELAY_RATE_PER_SECOND", "0.5")
	t.Setenv("REQUIRE_SUBSCRIPTION", "true")
	t.Setenv("R2_BUCKET_NAME", "media")

	cfg := LoadConfig()
	assert.Equal(t, 3, cfg.PublishConcurrency)
	assert.Equal(t, 2*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 0.5, cfg.RelayRatePerSecond)
	assert.True(t, cfg.RequireSubscription)
	assert.Equal(t, "media", cfg.R2.BucketName)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("AUTH_MAX_SKEW", "soon")
	t.Setenv("REQUIRE_SUBSCRIPTION", "maybe")

	cfg := LoadConfig()
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
	assert.Equal(t, 60*time.Second, cfg.AuthMaxSkew)
	assert.False(t, cfg.RequireSubscription)
}
