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

package solver

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/optiserve/optiserve/pkg/core"
)

// Engine composes the Runner and Interpreter into the single solve
// operation the orchestrator consumes.
type Engine struct {
	runner      *Runner
	interpreter *Interpreter
	logger      logr.Logger
}

// NewEngine creates an Engine backed by an external glpsol process.
func NewEngine(config Config, logger logr.Logger) *Engine {
	return &Engine{
		runner:      NewRunner(config, logger),
		interpreter: NewInterpreter(logger),
		logger:      logger,
	}
}

// Available reports whether the solver binary can be invoked.
func (e *Engine) Available() error {
	return e.runner.Available()
}

// Solve runs the model through glpsol and interprets the result. A solve
// killed at the hard deadline yields a timeout outcome with no incumbent;
// the only error returns are SolverUnavailable and internal serialization
// failures.
func (e *Engine) Solve(ctx context.Context, m *core.Model, budget time.Duration) (core.Outcome, error) {
	raw, err := e.runner.Solve(ctx, m, budget)
	if err != nil {
		if core.IsKind(err, core.KindSolverTimeout) {
			return core.TimeoutOutcome(nil), nil
		}
		return core.Outcome{}, err
	}

	outcome := e.interpreter.Interpret(m, raw)
	e.logger.V(1).Info("Solve finished",
		"model", m.Name,
		"status", string(outcome.Status),
		"duration", raw.Duration.String())
	return outcome, nil
}
