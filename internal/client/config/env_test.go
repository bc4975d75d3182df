package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv(EnvBackend, "postgres")
	t.Setenv(EnvPostgresDSN, "postgres://u:p@db:5432/webkech")
	t.Setenv(EnvDBPath, "")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://u:p@db:5432/webkech", cfg.PostgresDSN)
	assert.Equal(t, "webkech.db", cfg.DatabasePath, "empty variables are ignored")
}
