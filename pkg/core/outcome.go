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

package core

// Status enumerates the terminal, mutually exclusive outcomes of a solve.
type Status string

const (
	// StatusOptimal means the solver found a provably optimal assignment.
	StatusOptimal Status = "optimal"

	// StatusInfeasible means no assignment satisfies all constraints.
	StatusInfeasible Status = "infeasible"

	// StatusUnbounded means the objective can be improved without limit.
	StatusUnbounded Status = "unbounded"

	// StatusTimeout means the time budget was exhausted before a
	// definitive outcome. The outcome may carry a best-found incumbent,
	// explicitly flagged as non-optimal.
	StatusTimeout Status = "timeout"

	// StatusSolverError means the solver produced malformed output or an
	// unexpected status code. Any unrecognized solver status maps here,
	// never silently to optimal.
	StatusSolverError Status = "solver_error"
)

// Outcome is the typed result of one solve. It is a closed variant: the
// Status discriminates which payload fields are meaningful.
type Outcome struct {
	// Status discriminates the outcome.
	Status Status

	// Solution is the optimal assignment. Set only for StatusOptimal.
	Solution *Solution

	// BestFound is the best incumbent found before the budget expired.
	// Set only for StatusTimeout, and only when the solver reported one.
	// Never a proven optimum.
	BestFound *Solution

	// Detail carries diagnostic text for StatusSolverError and, when
	// available, the solver's own status wording for other outcomes.
	Detail string
}

// OptimalOutcome builds an Outcome for a proven optimum.
func OptimalOutcome(s *Solution) Outcome {
	return Outcome{Status: StatusOptimal, Solution: s}
}

// InfeasibleOutcome builds an Outcome for an infeasible model.
func InfeasibleOutcome(detail string) Outcome {
	return Outcome{Status: StatusInfeasible, Detail: detail}
}

// UnboundedOutcome builds an Outcome for an unbounded model.
func UnboundedOutcome(detail string) Outcome {
	return Outcome{Status: StatusUnbounded, Detail: detail}
}

// TimeoutOutcome builds an Outcome for an exhausted time budget. The
// incumbent may be nil when the solver stopped without one.
func TimeoutOutcome(incumbent *Solution) Outcome {
	return Outcome{Status: StatusTimeout, BestFound: incumbent}
}

// ErrorOutcome builds an Outcome for unexpected solver behavior.
func ErrorOutcome(detail string) Outcome {
	return Outcome{Status: StatusSolverError, Detail: detail}
}

// HasSolution reports whether the outcome carries any assignment, either
// a proven optimum or a timeout incumbent.
func (o Outcome) HasSolution() bool {
	return o.Solution != nil || o.BestFound != nil
}
