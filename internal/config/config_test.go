package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultMaxConcurrentSolves, cfg.MaxConcurrentSolves)
	assert.Equal(t, DefaultSolveTimeout, cfg.SolveTimeout)
	assert.Equal(t, DefaultMaxProblemSize, cfg.MaxProblemSize)
	assert.Equal(t, DefaultSolverPath, cfg.SolverPath)
	assert.Equal(t, DefaultSolverProfile, cfg.SolverProfile)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, DefaultDrainTimeout, cfg.DrainTimeout)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Profiles)
}

func TestLoadConfigFile(t *testing.T) {
	content := `
listen-addr: ":9090"
max-concurrent-solves: 8
solve-timeout: 45s
solver-profile: fast
profiles:
  default: |
    mipGap: 0.001
  fast: |
    mipGap: 0.05
    noPresolve: true
`
	path := filepath.Join(t.TempDir(), "optiserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 8, cfg.MaxConcurrentSolves)
	assert.Equal(t, 45*time.Second, cfg.SolveTimeout)
	assert.Equal(t, "fast", cfg.SolverProfile)
	// Values the file leaves out keep their defaults.
	assert.Equal(t, DefaultSolverPath, cfg.SolverPath)

	effective := cfg.Profiles.GetProfile(cfg.SolverProfile)
	assert.Equal(t, 0.05, effective.MIPGap)
	assert.True(t, effective.NoPresolve)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OPTISERVE_LISTEN_ADDR", ":6060")
	t.Setenv("OPTISERVE_LOG_LEVEL", "debug")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFlagOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Set("max-concurrent-solves", "16"))
	require.NoError(t, fs.Set("work-dir", "/var/tmp/solves"))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.MaxConcurrentSolves)
	assert.Equal(t, "/var/tmp/solves", cfg.WorkDir)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ListenAddr:          DefaultListenAddr,
			MaxConcurrentSolves: DefaultMaxConcurrentSolves,
			SolveTimeout:        DefaultSolveTimeout,
			MaxProblemSize:      DefaultMaxProblemSize,
			SolverPath:          DefaultSolverPath,
			SolverProfile:       DefaultSolverProfile,
			DrainTimeout:        DefaultDrainTimeout,
			LogLevel:            DefaultLogLevel,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentSolves = 0 }},
		{"sub-second timeout", func(c *Config) { c.SolveTimeout = 500 * time.Millisecond }},
		{"zero problem size", func(c *Config) { c.MaxProblemSize = 0 }},
		{"empty solver path", func(c *Config) { c.SolverPath = "" }},
		{"negative drain timeout", func(c *Config) { c.DrainTimeout = -time.Second }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"unknown solver profile", func(c *Config) { c.SolverProfile = "aggressive" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})
}
