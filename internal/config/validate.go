package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validScopes = map[string]bool{
	"all": true, "movies": true, "series": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("sync.schedule: %v", err))
		}
	}
	if c.Sync.Scope != "" && !validScopes[strings.ToLower(c.Sync.Scope)] {
		errs = append(errs, fmt.Sprintf("sync.scope: must be one of all, movies, series; got %q", c.Sync.Scope))
	}
	if c.Sync.RetryAttempts < 0 {
		errs = append(errs, "sync.retry_attempts: must not be negative")
	}
	if c.Sync.RetryBackoff < 0 {
		errs = append(errs, "sync.retry_backoff: must not be negative")
	}
	if c.Sync.RequestsPerSecond < 0 {
		errs = append(errs, "sync.requests_per_second: must not be negative")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	return errs
}
