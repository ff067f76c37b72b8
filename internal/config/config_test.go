// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCardKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func TestReadDefaults(t *testing.T) {
	cfg, err := Read("")
	require.NoError(t, err)

	assert.Equal(t, "StreamFlix", cfg.App.Name)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.Database.WriteTimeout)
	assert.Equal(t, "@hourly", cfg.Scheduler.SubscriptionSweep)
	assert.Equal(t, 5*time.Minute, cfg.Cache.MovieListTTL)
	assert.False(t, cfg.Auth.Enabled)
}

func TestReadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := []byte(`
server:
  port: 9090
database:
  url: postgres://file/db
  write_timeout: 3s
scheduler:
  subscription_sweep: "*/5 * * * *"
`)
	require.NoError(t, os.WriteFile(path, yamlBody, 0o600))

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("CARD_ENCRYPTION_KEY", testCardKey)

	cfg, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, 3*time.Second, cfg.Database.WriteTimeout)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.SubscriptionSweep)
	assert.Equal(t, testCardKey, cfg.Security.CardEncryptionKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Read("")
		require.NoError(t, err)
		cfg.Database.URL = "postgres://localhost/streamflix"
		cfg.Security.CardEncryptionKey = testCardKey
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing card key",
			mutate:  func(c *Config) { c.Security.CardEncryptionKey = "" },
			wantErr: "CARD_ENCRYPTION_KEY is required",
		},
		{
			name:    "short card key",
			mutate:  func(c *Config) { c.Security.CardEncryptionKey = "c2hvcnQ=" },
			wantErr: "32 bytes",
		},
		{
			name: "auth without key path",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.PrivateKeyPath = ""
			},
			wantErr: "JWT_PRIVATE_KEY_PATH",
		},
		{
			name: "cors wildcard with credentials",
			mutate: func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "wildcard",
		},
		{
			name:    "non positive write timeout",
			mutate:  func(c *Config) { c.Database.WriteTimeout = 0 },
			wantErr: "database.write_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
