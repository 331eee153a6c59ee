// Package config defines engine configuration and its layered loading.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GitHubToken authenticates GraphQL calls to the data source.
	GitHubToken string `koanf:"github_token"`

	// AllowedOrigins lists CORS origins for the HTTP surface.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// DataDir holds the sqlite database and baseline files.
	DataDir string `koanf:"data_dir"`

	// BaselineCohort selects which cohort baseline file to normalize against.
	BaselineCohort string `koanf:"baseline_cohort"`

	// CacheTTLSeconds bounds how long generated portfolios are replayed.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// TopProjects caps the portfolio's ranked project list.
	TopProjects int `koanf:"top_projects"`

	// NormalizationQuantile is the percentile cap for robust scaling.
	NormalizationQuantile float64 `koanf:"normalization_quantile"`

	// RedisAddr enables distributed rate limiting when set; empty means
	// in-memory fallback only.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// IPLimitPerMin and GenerateLimitPerHr bound request rates.
	IPLimitPerMin      int `koanf:"ip_limit_per_min"`
	GenerateLimitPerHr int `koanf:"generate_limit_per_hr"`
}

// New returns a Config holding the engine defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		AllowedOrigins:        []string{"http://localhost:3000"},
		DataDir:               "./data",
		BaselineCohort:        "global",
		CacheTTLSeconds:       3600,
		TopProjects:           6,
		NormalizationQuantile: 0.90,
		IPLimitPerMin:         60,
		GenerateLimitPerHr:    10,
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GITFOLIO_CONFIG is set
//  3. env (prefix GITFOLIO_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GITFOLIO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// GITFOLIO_GITHUB_TOKEN -> github_token, preserving underscores to
	// match the koanf tags on the struct.
	envProvider := env.Provider("GITFOLIO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gitfolio_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.TopProjects <= 0 {
		return nil, errors.New("top_projects must be positive")
	}
	if cfg.NormalizationQuantile <= 0 || cfg.NormalizationQuantile > 1 {
		return nil, errors.New("normalization_quantile must be in (0,1]")
	}
	return &cfg, nil
}
