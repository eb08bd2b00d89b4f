// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Posters  PostersConfig  `toml:"posters"`
	Sync     SyncConfig     `toml:"sync"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig identifies the Jellyfin server and the account used to sync.
type ServerConfig struct {
	Address    string `toml:"address"`
	Port       int    `toml:"port"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	APIKey     string `toml:"api_key"`
	DeviceName string `toml:"device_name"`
}

// BaseURL is the normalized server URL.
func (s ServerConfig) BaseURL() string {
	return BuildBaseURL(s.Address, s.Port)
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type PostersConfig struct {
	Dir string `toml:"dir"`
}

type SyncConfig struct {
	Schedule          string        `toml:"schedule"`
	Scope             string        `toml:"scope"`
	RetryAttempts     int           `toml:"retry_attempts"`
	RetryBackoff      time.Duration `toml:"retry_backoff"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Defaults.
const (
	DefaultSchedule      = "@every 6h"
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 30 * time.Second
	DefaultDatabasePath  = "./data/shelfsync.db"
	DefaultPostersDir    = "./data"
	DefaultDeviceName    = "shelfsync"
)

// Load reads, substitutes and validates the configuration file. Unresolved
// environment variables and validation failures are returned together as a
// *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.DeviceName == "" {
		c.Server.DeviceName = DefaultDeviceName
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Posters.Dir == "" {
		c.Posters.Dir = DefaultPostersDir
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = DefaultSchedule
	}
	if c.Sync.Scope == "" {
		c.Sync.Scope = "all"
	}
	if c.Sync.RetryAttempts == 0 {
		c.Sync.RetryAttempts = DefaultRetryAttempts
	}
	if c.Sync.RetryBackoff == 0 {
		c.Sync.RetryBackoff = DefaultRetryBackoff
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands environment references. Unresolvable references
// are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return out, missing
}
