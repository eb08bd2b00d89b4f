package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, Default().Validate(), "defaults must validate")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 99999 }, "server.port"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"schedule", func(c *Config) { c.Sync.Schedule = "every tuesday" }, "sync.schedule"},
		{"scope", func(c *Config) { c.Sync.Scope = "music" }, "sync.scope"},
		{"retry attempts", func(c *Config) { c.Sync.RetryAttempts = -1 }, "sync.retry_attempts"},
		{"retry backoff", func(c *Config) { c.Sync.RetryBackoff = -time.Second }, "sync.retry_backoff"},
		{"rate", func(c *Config) { c.Sync.RequestsPerSecond = -2 }, "sync.requests_per_second"},
		{"database", func(c *Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			assert.True(t, containsError(errs, tt.want), "expected %s error, got %v", tt.want, errs)
		})
	}
}

func TestValidate_CronSpecs(t *testing.T) {
	for _, spec := range []string{"@every 6h", "@daily", "0 3 * * *", "*/15 * * * *"} {
		cfg := Default()
		cfg.Sync.Schedule = spec
		assert.Empty(t, cfg.Validate(), spec)
	}
}

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
