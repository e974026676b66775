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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/optiserve/optiserve/pkg/core"
)

const (
	// DefaultSolverPath is the glpsol binary resolved via PATH.
	DefaultSolverPath = "glpsol"

	// hardKillGrace is how long after the GLPK-side time limit the
	// process is forcibly killed. GLPK stops itself at --tmlim and still
	// needs a moment to write the incumbent to the solution file; the
	// hard kill only fires when the process ignores its own limit.
	hardKillGrace = 2 * time.Second

	modelFileName    = "model.lp"
	solutionFileName = "solution.txt"
)

// Options tunes one glpsol invocation. Options come from the configured
// solver profile, not from the client payload.
type Options struct {
	// MIPGap is the relative MIP gap tolerance passed as --mipgap.
	// Zero means solver default (prove optimality).
	MIPGap float64 `yaml:"mipGap,omitempty" json:"mipGap,omitempty"`

	// NoPresolve disables the LP presolver (--nopresol).
	NoPresolve bool `yaml:"noPresolve,omitempty" json:"noPresolve,omitempty"`

	// ExtraArgs are appended verbatim to the glpsol command line.
	ExtraArgs []string `yaml:"extraArgs,omitempty" json:"extraArgs,omitempty"`
}

// Config configures the Runner.
type Config struct {
	// Path is the glpsol binary path or name. Empty means DefaultSolverPath.
	Path string

	// WorkDir is the base directory for per-solve scratch workspaces.
	// Empty means the operating system temp directory.
	WorkDir string

	// Options are the solver tuning options applied to every solve.
	Options Options
}

// RawResult captures everything one glpsol invocation produced, for the
// interpreter to map into a typed outcome.
type RawResult struct {
	// SolutionText is the content of the --output solution file. Empty
	// when the solver never wrote one.
	SolutionText string

	// Stdout and Stderr are the captured process streams.
	Stdout string
	Stderr string

	// TimedOut is set when GLPK reported stopping on its own time limit.
	TimedOut bool

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration
}

// Runner invokes glpsol as an isolated external process. A Runner is
// stateless and safe for concurrent use; every solve gets its own
// scratch workspace.
type Runner struct {
	config Config
	logger logr.Logger
}

// NewRunner creates a Runner with the given configuration.
func NewRunner(config Config, logger logr.Logger) *Runner {
	if config.Path == "" {
		config.Path = DefaultSolverPath
	}
	return &Runner{config: config, logger: logger}
}

// Available verifies the solver binary can be resolved. It is used by
// the health probe; a failure here means every solve would fail with
// SolverUnavailable.
func (r *Runner) Available() error {
	if _, err := exec.LookPath(r.config.Path); err != nil {
		return core.WrapError(core.KindSolverUnavailable, err,
			"solver binary %q not found", r.config.Path)
	}
	return nil
}

// Solve writes the model to a scoped workspace, runs glpsol with a hard
// wall-clock limit, and returns the raw result for interpretation.
//
// The budget is enforced twice: --tmlim tells GLPK to stop itself at the
// budget (writing any incumbent), and the context deadline at
// budget+grace kills the process group if GLPK does not comply. A solve
// killed at the hard deadline returns KindSolverTimeout with no result.
func (r *Runner) Solve(ctx context.Context, m *core.Model, budget time.Duration) (*RawResult, error) {
	workDir, err := os.MkdirTemp(r.config.WorkDir, "optiserve-solve-")
	if err != nil {
		return nil, core.WrapError(core.KindSolverUnavailable, err, "creating solve workspace")
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			r.logger.Error(rmErr, "Failed to remove solve workspace", "dir", workDir)
		}
	}()

	modelPath := filepath.Join(workDir, modelFileName)
	solutionPath := filepath.Join(workDir, solutionFileName)

	f, err := os.Create(modelPath)
	if err != nil {
		return nil, core.WrapError(core.KindSolverUnavailable, err, "writing model file")
	}
	writeErr := WriteLP(f, m)
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return nil, core.WrapError(core.KindSolverError, writeErr, "serializing model %q", m.Name)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, budget+hardKillGrace)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.config.Path, r.buildArgs(m, modelPath, solutionPath, budget)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// glpsol spawns no children today, but kill the whole process group
	// anyway so a cancelled solve never keeps consuming CPU.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil && isLaunchFailure(err) {
		return nil, core.WrapError(core.KindSolverUnavailable, err,
			"cannot launch solver %q", r.config.Path)
	}
	if ctx.Err() != nil {
		// A cancelled parent means the caller walked away mid-solve; only
		// the runner's own deadline is a timeout.
		if errors.Is(parent.Err(), context.Canceled) {
			r.logger.V(1).Info("Solve abandoned by caller",
				"model", m.Name, "elapsed", elapsed.String())
			return nil, fmt.Errorf("solve of model %q abandoned: %w", m.Name, parent.Err())
		}
		r.logger.Info("Solve killed at hard deadline",
			"model", m.Name, "budget", budget.String(), "elapsed", elapsed.String())
		return nil, core.WrapError(core.KindSolverTimeout, ctx.Err(),
			"solve exceeded %s budget", budget)
	}

	raw := &RawResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
		TimedOut: strings.Contains(stdout.String(), "TIME LIMIT EXCEEDED"),
	}
	if data, readErr := os.ReadFile(solutionPath); readErr == nil {
		raw.SolutionText = string(data)
	}

	if err != nil {
		// Nonzero exit with output captured: leave classification to
		// the interpreter, which sees the full solver text.
		r.logger.V(1).Info("Solver exited nonzero",
			"model", m.Name, "error", err.Error())
	}

	return raw, nil
}

// buildArgs assembles the glpsol command line for one solve.
func (r *Runner) buildArgs(m *core.Model, modelPath, solutionPath string, budget time.Duration) []string {
	args := []string{
		"--lp", modelPath,
		"--output", solutionPath,
		"--tmlim", fmt.Sprintf("%d", tmlimSeconds(budget)),
	}
	if r.config.Options.MIPGap > 0 && m.IsMIP() {
		args = append(args, "--mipgap", fmt.Sprintf("%g", r.config.Options.MIPGap))
	}
	if r.config.Options.NoPresolve {
		args = append(args, "--nopresol")
	}
	args = append(args, r.config.Options.ExtraArgs...)
	return args
}

// tmlimSeconds converts the budget into whole seconds for --tmlim,
// never below one second.
func tmlimSeconds(budget time.Duration) int {
	secs := int(budget / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// isLaunchFailure distinguishes "the process never ran" from "the
// process ran and failed".
func isLaunchFailure(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	// exec.Error wraps path resolution failures not covered above.
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
