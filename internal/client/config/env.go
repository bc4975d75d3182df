package config

import "os"

// Environment variables read by parseEnv.
const (
	EnvBackend     = "WEBKECH_BACKEND"
	EnvDBPath      = "WEBKECH_DB_PATH"
	EnvPostgresDSN = "WEBKECH_POSTGRES_DSN"
	EnvRedisURL    = "WEBKECH_REDIS_URL"
	EnvNamespace   = "WEBKECH_NAMESPACE"
	EnvLogLevel    = "WEBKECH_LOG_LEVEL"
)

// parseEnv overlays cfg with non-empty environment variables.
func parseEnv(cfg *Config) {
	for name, dst := range map[string]*string{
		EnvBackend:     &cfg.Backend,
		EnvDBPath:      &cfg.DatabasePath,
		EnvPostgresDSN: &cfg.PostgresDSN,
		EnvRedisURL:    &cfg.RedisURL,
		EnvNamespace:   &cfg.Namespace,
		EnvLogLevel:    &cfg.LogLevel,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}
