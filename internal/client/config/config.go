package config

import (
	"fmt"

	"github.com/dmitrijs2005/webkech/internal/common"
	"github.com/dmitrijs2005/webkech/internal/cryptox"
	"github.com/dmitrijs2005/webkech/internal/logging"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds runtime settings for the webkech CLI.
//
// Fields:
//   - Backend: one of sqlite, postgres, redis, memory.
//   - DatabasePath: SQLite file used by the sqlite backend.
//   - PostgresDSN / RedisURL: connection strings for the remote backends.
//   - Namespace: key prefix, so several stores can share one medium.
//   - SeedDemo: insert the demo account on startup when no accounts exist.
//   - LogLevel: debug, info, warn or error.
//   - KDF: Argon2id cost used when hashing new secrets.
type Config struct {
	Backend      string
	DatabasePath string
	PostgresDSN  string
	RedisURL     string
	Namespace    string
	SeedDemo     bool
	LogLevel     string
	KDF          cryptox.Params
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendSQLite
	c.DatabasePath = "webkech.db"
	c.PostgresDSN = ""
	c.RedisURL = "redis://localhost:6379/0"
	c.Namespace = "webkech"
	c.SeedDemo = true
	c.LogLevel = "info"
	c.KDF = cryptox.DefaultParams()
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("sqlite backend needs a database path")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres backend needs a DSN")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis backend needs a URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", common.ErrorUnsupportedBackend, c.Backend)
	}

	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.KDF.Validate()
}

// LoadConfig builds a Config from defaults, then the JSON file at jsonPath
// (skipped when empty), then the environment. Later sources take precedence.
// Command-line flags are applied afterwards by the caller, see Flags.
func LoadConfig(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	return cfg, nil
}
