package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Review   ReviewConfig   `json:"review"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// ReviewConfig tunes the review session policy. Zero values fall back to the
// defaults applied by Load.
type ReviewConfig struct {
	DesiredRetention    float64 `json:"desired_retention"`     // 0 → 0.90 (engine default)
	DefaultSessionItems int     `json:"default_session_items"` // 0 → 40
	MinSessionItems     int     `json:"min_session_items"`     // 0 → 1
	MaxSessionItems     int     `json:"max_session_items"`     // 0 → 120
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Review.DefaultSessionItems == 0 {
		cfg.Review.DefaultSessionItems = 40
	}
	if cfg.Review.MinSessionItems == 0 {
		cfg.Review.MinSessionItems = 1
	}
	if cfg.Review.MaxSessionItems == 0 {
		cfg.Review.MaxSessionItems = 120
	}
	return &cfg, nil
}
