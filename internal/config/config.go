// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

// Package config loads service configuration from YAML files and CLI flags.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Hasher scheme names accepted in configuration.
const (
	HasherSHA256   = "sha256"
	HasherArgon2id = "argon2id"
)

// Defaults applied when neither file nor flags set a value.
const (
	DefaultHasher      = HasherSHA256
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
)

// Config holds all service configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds authentication engine settings.
type AuthConfig struct {
	// Hasher selects the password hashing scheme: "sha256" (legacy,
	// compatible with existing records) or "argon2id".
	Hasher string `koanf:"hasher"`
}

// MetricsConfig holds observability endpoint settings.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Load reads configuration from an optional YAML file, then overlays any
// set CLI flags. Flags win over file values; defaults fill the rest.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.Hasher == "" {
		c.Auth.Hasher = DefaultHasher
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) validate() error {
	switch c.Auth.Hasher {
	case HasherSHA256, HasherArgon2id:
	default:
		return oops.Code("CONFIG_INVALID").
			With("auth.hasher", c.Auth.Hasher).
			Errorf("auth.hasher must be %q or %q", HasherSHA256, HasherArgon2id)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log.format", c.Log.Format).
			Errorf("log.format must be \"json\" or \"text\"")
	}
	return nil
}
