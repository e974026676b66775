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
	"bufio"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/optiserve/optiserve/pkg/core"
)

// objectiveTolerance is the relative/absolute tolerance used when
// cross-checking the reported objective against the recomputed one.
const objectiveTolerance = 1e-6

// Interpreter maps raw glpsol output into typed outcomes.
type Interpreter struct {
	logger logr.Logger
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(logger logr.Logger) *Interpreter {
	return &Interpreter{logger: logger}
}

// Interpret maps one raw solver result into a core.Outcome. The mapping
// is exhaustive over the status strings GLPK is known to emit; anything
// unrecognized becomes StatusSolverError carrying the raw text, never a
// silent optimal.
func (it *Interpreter) Interpret(m *core.Model, raw *RawResult) core.Outcome {
	status, ok := extractStatus(raw.SolutionText)
	if !ok {
		return it.interpretWithoutSolutionFile(m, raw)
	}

	switch {
	case strings.Contains(status, "NON-OPTIMAL"):
		// Branch-and-bound stopped early (time limit) holding a feasible
		// incumbent that is not proven optimal.
		return core.TimeoutOutcome(it.parseSolution(m, raw))

	case strings.Contains(status, "INFEASIBLE") || strings.Contains(status, "EMPTY"):
		return core.InfeasibleOutcome(status)

	case strings.Contains(status, "UNBOUNDED"):
		return core.UnboundedOutcome(status)

	case status == "OPTIMAL" || status == "INTEGER OPTIMAL":
		sol := it.parseSolution(m, raw)
		if sol == nil {
			return it.errorOutcome(m, raw, "solution file has optimal status but no parseable assignment")
		}
		return core.OptimalOutcome(sol)

	case strings.Contains(status, "UNDEFINED"), status == "FEASIBLE":
		// The solve stopped before reaching a definitive state. When the
		// solver's own time limit tripped this is a timeout; otherwise
		// it is unexpected.
		if raw.TimedOut {
			return core.TimeoutOutcome(it.parseSolution(m, raw))
		}
		return it.errorOutcome(m, raw, "solver stopped in state "+strconv.Quote(status))

	default:
		return it.errorOutcome(m, raw, "unrecognized solver status "+strconv.Quote(status))
	}
}

// interpretWithoutSolutionFile classifies solves where glpsol never
// wrote a solution file, from the diagnostic stream alone. glpsol
// reports model-level verdicts on stdout before (or instead of)
// producing output.
func (it *Interpreter) interpretWithoutSolutionFile(m *core.Model, raw *RawResult) core.Outcome {
	switch {
	case raw.TimedOut:
		return core.TimeoutOutcome(nil)
	case strings.Contains(raw.Stdout, "NO PRIMAL FEASIBLE SOLUTION") ||
		strings.Contains(raw.Stdout, "NO FEASIBLE SOLUTION"):
		return core.InfeasibleOutcome("no feasible solution")
	case strings.Contains(raw.Stdout, "UNBOUNDED"):
		return core.UnboundedOutcome("unbounded solution")
	default:
		return it.errorOutcome(m, raw, "solver produced no solution file")
	}
}

// errorOutcome logs the raw solver output for diagnosis and returns a
// SolverError outcome. This is always a bug-indicating condition.
func (it *Interpreter) errorOutcome(m *core.Model, raw *RawResult, detail string) core.Outcome {
	it.logger.Error(nil, "Unexpected solver output",
		"model", m.Name,
		"detail", detail,
		"stdout", raw.Stdout,
		"stderr", raw.Stderr,
		"solution", raw.SolutionText)
	return core.ErrorOutcome(detail)
}

// parseSolution extracts the variable assignment and objective value
// from the solution file. Returns nil when no assignment is present.
func (it *Interpreter) parseSolution(m *core.Model, raw *RawResult) *core.Solution {
	if raw.SolutionText == "" {
		return nil
	}

	values, found := parseColumnActivities(raw.SolutionText, m)
	if !found {
		return nil
	}

	sol := &core.Solution{Values: values}

	reported, hasReported := extractObjective(raw.SolutionText)
	recomputed := recomputeObjective(m, values)
	if hasReported {
		sol.Objective = reported
		if !scalar.EqualWithinAbsOrRel(reported, recomputed, objectiveTolerance, objectiveTolerance) {
			// Rounded activity output can drift from the reported value;
			// the solver's figure wins but the drift is worth a log line.
			it.logger.V(1).Info("Objective cross-check mismatch",
				"model", m.Name, "reported", reported, "recomputed", recomputed)
		}
	} else {
		sol.Objective = recomputed
	}

	return sol
}

// extractStatus finds the "Status:" line of a solution file.
func extractStatus(text string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if after, ok := strings.CutPrefix(line, "Status:"); ok {
			return strings.TrimSpace(after), true
		}
	}
	return "", false
}

// extractObjective finds and parses the "Objective:" line, shaped like
//
//	Objective:  obj = 733.3333333 (MAXimum)
func extractObjective(text string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		after, ok := strings.CutPrefix(line, "Objective:")
		if !ok {
			continue
		}
		_, rhs, ok := strings.Cut(after, "=")
		if !ok {
			return 0, false
		}
		if paren := strings.Index(rhs, "("); paren >= 0 {
			rhs = rhs[:paren]
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// parseColumnActivities reads the column section of a solution file and
// returns the activity of every model variable (zero when the solver
// omitted it). Parsing is defensive: the column layout differs between
// LP output (with a basis status field) and MIP output (without), and
// long variable names wrap onto their own line.
func parseColumnActivities(text string, m *core.Model) (map[string]float64, bool) {
	values := make(map[string]float64, m.NumVariables())
	for _, v := range m.Variables {
		values[v.Name] = 0
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	inColumns := false
	sawAny := false
	pending := "" // variable name whose activity wraps to the next line

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inColumns {
			if strings.Contains(line, "Column name") {
				inColumns = true
			}
			continue
		}
		if trimmed == "" {
			break // end of the column section
		}
		if strings.HasPrefix(trimmed, "---") {
			continue
		}

		fields := strings.Fields(trimmed)
		var name string
		var rest []string

		if pending != "" {
			// A wrapped long name puts its activity fields on the
			// following line.
			name = pending
			rest = fields
		} else if _, err := strconv.Atoi(fields[0]); err == nil && len(fields) >= 2 {
			name = fields[1]
			rest = fields[2:]
			if len(rest) == 0 {
				pending = name
				continue
			}
		} else {
			continue
		}
		pending = ""

		if _, known := values[name]; !known {
			continue
		}
		if activity, ok := firstNumeric(rest); ok {
			values[name] = activity
			sawAny = true
		}
	}

	return values, sawAny
}

// firstNumeric returns the first field that parses as a float, skipping
// basis status markers (B, NL, NU, NF, NS, *).
func firstNumeric(fields []string) (float64, bool) {
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// recomputeObjective evaluates the objective at the given assignment.
func recomputeObjective(m *core.Model, values map[string]float64) float64 {
	dense := make([]float64, m.NumVariables())
	for _, v := range m.Variables {
		dense[v.Index] = values[v.Name]
	}
	return floats.Dot(m.Objective.Coefficients, dense)
}
