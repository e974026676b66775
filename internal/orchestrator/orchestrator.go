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

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"

	"github.com/optiserve/optiserve/pkg/core"
)

// SolveEngine is the solver boundary the orchestrator drives. The
// production implementation is solver.Engine; tests substitute fakes.
type SolveEngine interface {
	// Solve runs the validated model within the time budget.
	Solve(ctx context.Context, m *core.Model, budget time.Duration) (core.Outcome, error)

	// Available reports whether the underlying solver can be invoked.
	Available() error
}

// Config holds the orchestrator's explicit configuration. It is passed
// in at construction, not read from ambient globals, so tests can run
// the pipeline with fake engines and tight limits.
type Config struct {
	// MaxConcurrentSolves is the concurrency ceiling.
	MaxConcurrentSolves int

	// DefaultTimeout is the solve budget when the request names none.
	// It is also the cap for request-supplied budgets.
	DefaultTimeout time.Duration

	// Limits bounds admissible model sizes.
	Limits core.Limits
}

// Validate checks for invalid orchestrator configuration.
func (c Config) Validate() error {
	if c.MaxConcurrentSolves < 1 {
		return fmt.Errorf("MaxConcurrentSolves must be >= 1, got %d", c.MaxConcurrentSolves)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("DefaultTimeout must be > 0, got %s", c.DefaultTimeout)
	}
	return nil
}

// Orchestrator drives the build → validate → solve pipeline for each
// request, bounded by a concurrency semaphore.
type Orchestrator struct {
	engine SolveEngine
	config Config
	sem    *semaphore.Weighted
	logger logr.Logger
}

// New creates an Orchestrator.
func New(engine SolveEngine, config Config, logger logr.Logger) (*Orchestrator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		engine: engine,
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrentSolves)),
		logger: logger,
	}, nil
}

// Healthy reports whether the solver backend is available.
func (o *Orchestrator) Healthy() error {
	return o.engine.Available()
}

// Solve runs one problem spec through the full pipeline and returns its
// typed outcome. The requested budget is capped by the configured
// default; zero means the default. Failures before the solver starts
// are returned as classified errors without consuming a solver slot
// beyond the semaphore acquisition window.
func (o *Orchestrator) Solve(ctx context.Context, spec core.ProblemSpec, requested time.Duration) (core.Outcome, error) {
	if !o.sem.TryAcquire(1) {
		return core.Outcome{}, core.NewError(core.KindServiceBusy,
			"concurrency ceiling of %d active solves reached", o.config.MaxConcurrentSolves)
	}
	defer o.sem.Release(1)

	model, err := core.BuildModel(spec)
	if err != nil {
		return core.Outcome{}, err
	}

	if err := core.ValidateModel(model, o.config.Limits); err != nil {
		return core.Outcome{}, err
	}

	budget := o.effectiveBudget(requested)
	o.logger.V(1).Info("Starting solve",
		"model", model.Name,
		"variables", model.NumVariables(),
		"constraints", model.NumConstraints(),
		"mip", model.IsMIP(),
		"budget", budget.String())

	outcome, err := o.engine.Solve(ctx, model, budget)
	if err != nil {
		o.logger.Error(err, "Solve failed", "model", model.Name, "kind", string(core.KindOf(err)))
		return core.Outcome{}, err
	}

	o.logger.Info("Solve completed",
		"model", model.Name,
		"status", string(outcome.Status))
	return outcome, nil
}

// effectiveBudget caps the requested budget at the configured default.
func (o *Orchestrator) effectiveBudget(requested time.Duration) time.Duration {
	if requested <= 0 || requested > o.config.DefaultTimeout {
		return o.config.DefaultTimeout
	}
	return requested
}
