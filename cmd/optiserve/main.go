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

// optiserve is an HTTP service that solves LP/MILP problems with GLPK.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/optiserve/optiserve/internal/config"
	"github.com/optiserve/optiserve/internal/logging"
	"github.com/optiserve/optiserve/internal/orchestrator"
	"github.com/optiserve/optiserve/internal/server"
	"github.com/optiserve/optiserve/pkg/core"
	"github.com/optiserve/optiserve/pkg/solver"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "optiserve",
		Short:        "LP/MILP solving service backed by GLPK",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to YAML config file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.NewLogger(cfg.LogLevel)
	for _, skipped := range cfg.SkippedProfiles {
		logger.Info("Skipping invalid solver profile", "profile", skipped.Name, "reason", skipped.Reason)
	}

	engine := solver.NewEngine(solver.Config{
		Path:    cfg.SolverPath,
		WorkDir: cfg.WorkDir,
		Options: cfg.Profiles.GetProfile(cfg.SolverProfile).Options(),
	}, logger.WithName("solver"))

	if err := engine.Available(); err != nil {
		// Surfaced at startup so a missing binary is not discovered one
		// failed request at a time, but the service still starts: the
		// health probe reports the condition until it clears.
		logger.Error(err, "Solver binary not available at startup", "path", cfg.SolverPath)
	}

	orc, err := orchestrator.New(engine, orchestrator.Config{
		MaxConcurrentSolves: cfg.MaxConcurrentSolves,
		DefaultTimeout:      cfg.SolveTimeout,
		Limits:              core.Limits{MaxProblemSize: cfg.MaxProblemSize},
	}, logger.WithName("orchestrator"))
	if err != nil {
		return err
	}

	logger.Info("Starting optiserve",
		"listenAddr", cfg.ListenAddr,
		"maxConcurrentSolves", cfg.MaxConcurrentSolves,
		"solveTimeout", cfg.SolveTimeout.String(),
		"maxProblemSize", cfg.MaxProblemSize,
		"solverPath", cfg.SolverPath,
		"solverProfile", cfg.SolverProfile)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, orc, logger.WithName("server")).Run(ctx)
}
