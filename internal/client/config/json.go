package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is a DTO used only for unmarshalling. Pointer fields tell an
// absent key apart from a zero value, so a file may override a single
// setting.
type JsonConfig struct {
	Backend      *string  `json:"backend"`
	DatabasePath *string  `json:"database_path"`
	PostgresDSN  *string  `json:"postgres_dsn"`
	RedisURL     *string  `json:"redis_url"`
	Namespace    *string  `json:"namespace"`
	SeedDemo     *bool    `json:"seed_demo"`
	LogLevel     *string  `json:"log_level"`
	KDF          *JsonKDF `json:"kdf"`
}

type JsonKDF struct {
	MemoryKiB   *uint32 `json:"memory_kib"`
	Iterations  *uint32 `json:"iterations"`
	Parallelism *uint8  `json:"parallelism"`
}

// parseJson overlays cfg with the values present in the JSON file at path.
// An empty path is a no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.Namespace, jc.Namespace)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.SeedDemo != nil {
		cfg.SeedDemo = *jc.SeedDemo
	}
	if jc.KDF != nil {
		if jc.KDF.MemoryKiB != nil {
			cfg.KDF.MemoryKiB = *jc.KDF.MemoryKiB
		}
		if jc.KDF.Iterations != nil {
			cfg.KDF.Iterations = *jc.KDF.Iterations
		}
		if jc.KDF.Parallelism != nil {
			cfg.KDF.Parallelism = *jc.KDF.Parallelism
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
