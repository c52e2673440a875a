package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/wrenchbid.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wrenchbid", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, 5, cfg.Bidding.DefaultMaxBids)
	assert.Equal(t, 5.0, cfg.Bidding.ReferralFeePercent)
	assert.Equal(t, 5, cfg.Notifications.MaxRetries)
	assert.Equal(t, 2.0, cfg.Notifications.BackoffFactor)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("WRENCHBID_DB_PATH", "/var/lib/wrenchbid/data.db")
	path := writeConfig(t, `
database:
  path: ${WRENCHBID_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/wrenchbid/data.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	t.Run("missing database path", func(t *testing.T) {
		path := writeConfig(t, `
app:
  name: test
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("redis enabled without address", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/db.sqlite
redis:
  enabled: true
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("auth enabled without keys", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/db.sqlite
api:
  auth:
    enabled: true
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("fee percent out of range", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/db.sqlite
bidding:
  referral_fee_percent: 150
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("full valid config", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/db.sqlite
redis:
  enabled: true
  address: localhost:6379
api:
  http:
    port: 9000
  auth:
    enabled: true
    api_keys:
      - key: secret
        name: portal
bidding:
  default_max_bids: 8
  referral_fee_percent: 7.5
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.API.HTTP.Port)
		assert.Equal(t, 8, cfg.Bidding.DefaultMaxBids)
		assert.Equal(t, 7.5, cfg.Bidding.ReferralFeePercent)
	})
}
