package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: dealmatch-workers
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: dealmatch
    user: ${TEST_DB_USER}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
workers:
  match-buyer-to-listings:
    enabled: true
    timeout: 15000
  send-match-notification:
    enabled: false
matching:
  max_candidates: 200
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_DB_USER", "matcher")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "matcher", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())

	assert.Equal(t, 200, cfg.Matching.MaxCandidates)
	assert.Equal(t, 20, cfg.Matching.DefaultLimit)
	assert.Equal(t, 10*time.Minute, cfg.Matching.CacheDuration())
	assert.Equal(t, "listings", cfg.Matching.ListingsIndex)
	assert.Equal(t, "buyers", cfg.Matching.BuyersIndex)

	mb := GetWorkerConfig(cfg, "match-buyer-to-listings")
	assert.True(t, mb.Enabled)
	assert.Equal(t, 15000, mb.Timeout)
	assert.Equal(t, cfg.Camunda.MaxJobsActive, mb.MaxJobsActive)
	assert.Equal(t, 3, mb.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "send-match-notification"))
	assert.True(t, IsWorkerEnabled(cfg, "calculate-match-score"))
}

func TestLoadFromFile_EnvironmentOverridesKeys(t *testing.T) {
	t.Setenv("TEST_DB_USER", "matcher")
	t.Setenv("DATABASE_REDIS_ADDRESS", "redis.internal:6380")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Database.Redis.Address)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "limit above candidates",
			body: baseYAML + "  default_limit: 500\n",
			wantErr: "matching.default_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_USER", "matcher")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
