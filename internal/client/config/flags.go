package config

import (
	"github.com/spf13/pflag"
)

// Flags mirrors the command-line overrides. Register it on a flag set with
// Bind, parse, then call Apply: only flags the user actually set override
// the file and environment values.
type Flags struct {
	ConfigPath string
	values     Config
	fs         *pflag.FlagSet
}

// Bind registers the persistent flags on fs. Defaults shown in help come
// from a default Config.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()
	f.fs = fs

	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to JSON config file")
	fs.StringVar(&f.values.Backend, "backend", d.Backend, "storage backend: sqlite, postgres, redis, memory")
	fs.StringVar(&f.values.DatabasePath, "db", d.DatabasePath, "SQLite database file")
	fs.StringVar(&f.values.PostgresDSN, "postgres-dsn", d.PostgresDSN, "Postgres connection string")
	fs.StringVar(&f.values.RedisURL, "redis-url", d.RedisURL, "Redis connection URL")
	fs.StringVar(&f.values.Namespace, "namespace", d.Namespace, "storage key namespace")
	fs.BoolVar(&f.values.SeedDemo, "seed", d.SeedDemo, "seed the demo account when storage is empty")
	fs.StringVar(&f.values.LogLevel, "log-level", d.LogLevel, "log level: debug, info, warn, error")
}

// Apply copies every flag that was set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "backend":
			cfg.Backend = f.values.Backend
		case "db":
			cfg.DatabasePath = f.values.DatabasePath
		case "postgres-dsn":
			cfg.PostgresDSN = f.values.PostgresDSN
		case "redis-url":
			cfg.RedisURL = f.values.RedisURL
		case "namespace":
			cfg.Namespace = f.values.Namespace
		case "seed":
			cfg.SeedDemo = f.values.SeedDemo
		case "log-level":
			cfg.LogLevel = f.values.LogLevel
		}
	})
}

// Load runs the full chain: defaults, JSON file, environment, flags, then
// validation.
func (f *Flags) Load() (*Config, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
