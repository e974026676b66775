/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads and validates service configuration from flags,
// environment variables, and an optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults applied when neither flags, environment, nor file set a value.
const (
	DefaultListenAddr          = ":8080"
	DefaultMaxConcurrentSolves = 4
	DefaultSolveTimeout        = 30 * time.Second
	DefaultMaxProblemSize      = 250_000
	DefaultSolverPath          = "glpsol"
	DefaultDrainTimeout        = 10 * time.Second
	DefaultLogLevel            = "info"
	DefaultSolverProfile       = ProfileDefaultsKey

	// EnvPrefix is the environment variable prefix, e.g.
	// OPTISERVE_LISTEN_ADDR overrides listen-addr.
	EnvPrefix = "OPTISERVE"
)

// Config is the startup configuration for the service. It is read once
// at process start and passed explicitly into the components that need
// it; nothing reads it as ambient global state.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `mapstructure:"listen-addr"`

	// MaxConcurrentSolves caps the number of simultaneous active solves.
	// Requests beyond the ceiling are rejected with ServiceBusy.
	MaxConcurrentSolves int `mapstructure:"max-concurrent-solves"`

	// SolveTimeout is the per-solve wall-clock budget. A request may ask
	// for less but never more.
	SolveTimeout time.Duration `mapstructure:"solve-timeout"`

	// MaxProblemSize caps variables * constraints per model.
	MaxProblemSize int `mapstructure:"max-problem-size"`

	// SolverPath is the glpsol binary path or name.
	SolverPath string `mapstructure:"solver-path"`

	// WorkDir is the base directory for per-solve scratch workspaces.
	// Empty means the operating system temp directory.
	WorkDir string `mapstructure:"work-dir"`

	// SolverProfile names the glpsol tuning profile to apply, resolved
	// against the profiles section of the config file.
	SolverProfile string `mapstructure:"solver-profile"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	// ["*"] allows all.
	CORSAllowedOrigins []string `mapstructure:"cors-allowed-origins"`

	// DrainTimeout bounds graceful shutdown.
	DrainTimeout time.Duration `mapstructure:"drain-timeout"`

	// LogLevel is one of error, warn, info, debug, trace.
	LogLevel string `mapstructure:"log-level"`

	// Profiles holds the named solver tuning profiles from the config
	// file. Populated only when a config file is used.
	Profiles SolverProfileData `mapstructure:"-"`

	// SkippedProfiles lists profile entries dropped during parsing,
	// surfaced in startup logs.
	SkippedProfiles []SkippedProfile `mapstructure:"-"`
}

// RegisterFlags declares the command-line flags for every configurable
// value on the given flag set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("listen-addr", DefaultListenAddr, "HTTP listen address")
	fs.Int("max-concurrent-solves", DefaultMaxConcurrentSolves, "maximum simultaneous active solves")
	fs.Duration("solve-timeout", DefaultSolveTimeout, "per-solve wall-clock budget")
	fs.Int("max-problem-size", DefaultMaxProblemSize, "maximum variables x constraints per model")
	fs.String("solver-path", DefaultSolverPath, "glpsol binary path")
	fs.String("work-dir", "", "base directory for solve workspaces (default: system temp)")
	fs.String("solver-profile", DefaultSolverProfile, "named solver tuning profile")
	fs.StringSlice("cors-allowed-origins", []string{"*"}, "CORS allowed origins")
	fs.Duration("drain-timeout", DefaultDrainTimeout, "graceful shutdown drain timeout")
	fs.String("log-level", DefaultLogLevel, "log level: error, warn, info, debug, trace")
}

// Load resolves configuration with precedence flags > environment >
// config file > defaults, then validates it.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen-addr", DefaultListenAddr)
	v.SetDefault("max-concurrent-solves", DefaultMaxConcurrentSolves)
	v.SetDefault("solve-timeout", DefaultSolveTimeout)
	v.SetDefault("max-problem-size", DefaultMaxProblemSize)
	v.SetDefault("solver-path", DefaultSolverPath)
	v.SetDefault("work-dir", "")
	v.SetDefault("solver-profile", DefaultSolverProfile)
	v.SetDefault("cors-allowed-origins", []string{"*"})
	v.SetDefault("drain-timeout", DefaultDrainTimeout)
	v.SetDefault("log-level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Profiles, cfg.SkippedProfiles = ParseSolverProfiles(v.GetStringMapString("profiles"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen-addr must not be empty")
	}
	if c.MaxConcurrentSolves < 1 {
		return fmt.Errorf("max-concurrent-solves must be >= 1, got %d", c.MaxConcurrentSolves)
	}
	if c.SolveTimeout < time.Second {
		return fmt.Errorf("solve-timeout must be >= 1s, got %s", c.SolveTimeout)
	}
	if c.MaxProblemSize < 1 {
		return fmt.Errorf("max-problem-size must be >= 1, got %d", c.MaxProblemSize)
	}
	if c.SolverPath == "" {
		return fmt.Errorf("solver-path must not be empty")
	}
	if c.DrainTimeout < 0 {
		return fmt.Errorf("drain-timeout must be >= 0, got %s", c.DrainTimeout)
	}
	switch c.LogLevel {
	case "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("unknown log-level %q", c.LogLevel)
	}
	if c.SolverProfile != ProfileDefaultsKey {
		if _, ok := c.Profiles[c.SolverProfile]; !ok {
			return fmt.Errorf("solver-profile %q not found in profiles", c.SolverProfile)
		}
	}
	return nil
}
