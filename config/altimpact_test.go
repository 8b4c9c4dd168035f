package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigRequiresStoreSettings(t *testing.T) {
	_, err := LoadAppConfig("ALTIMPACT_TEST_MISSING")
	assert.Error(t, err)
}

func TestLoadAppConfigReadsNamespacedEnv(t *testing.T) {
	t.Setenv("ALTIMPACT_TEST2_STORE_URL", "http://couch.local:5984")
	t.Setenv("ALTIMPACT_TEST2_STORE_DATABASE", "altimpact")
	t.Setenv("ALTIMPACT_TEST2_REDIS_ADDR", "redis.local:6379")
	t.Setenv("ALTIMPACT_TEST2_WORKER_WORKERS_PER_PROVIDER", "4")

	cfg, err := LoadAppConfig("ALTIMPACT_TEST2")
	require.NoError(t, err)
	assert.Equal(t, "http://couch.local:5984", cfg.Store.URL)
	assert.Equal(t, "altimpact", cfg.Store.Database)
	assert.Equal(t, "redis.local:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Worker.DefaultWorkersPerProvider)
}
