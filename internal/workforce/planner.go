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

package workforce

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/optiserve/optiserve/pkg/core"
)

// ShortagePenalty is the objective weight on uncovered workload hours.
// Large enough that the solver removes nobody before covering demand.
const ShortagePenalty = 10_000.0

// DefaultRemovalPenalty applies to roles absent from the penalty map.
const DefaultRemovalPenalty = 1.0

// Request describes one workforce planning problem.
type Request struct {
	// Functions are the business functions to plan, e.g. departments.
	Functions []string `json:"functions"`

	// Roles are the role levels within each function.
	Roles []string `json:"roles"`

	// Workload is the demand in hours per function.
	Workload map[string]float64 `json:"workload"`

	// Capacity is productive hours per person per planning period.
	Capacity float64 `json:"capacity"`

	// CurrentHeadcount maps "function|role" to today's headcount.
	// Missing cells default to 0.
	CurrentHeadcount map[string]int `json:"currentHeadcount"`

	// Alpha maps roles to minimum role-share weights (0.0-1.0). A role
	// with alpha > 0 must hold at least that share of each function's
	// kept headcount. Missing roles default to 0 (no floor).
	Alpha map[string]float64 `json:"alpha,omitempty"`

	// Penalty maps roles to removal penalty weights. Missing roles
	// default to 1.
	Penalty map[string]float64 `json:"penalty,omitempty"`
}

// Row is the planning result for one (function, role) cell.
type Row struct {
	Function string  `json:"function"`
	Role     string  `json:"role"`
	Current  int     `json:"current"`
	Optimal  int     `json:"optimal"`
	Removed  int     `json:"removed"`
	Workload float64 `json:"workload"`
	Capacity float64 `json:"capacity"`
	Shortage float64 `json:"shortage"`
}

// Result is the outcome of one planning solve.
type Result struct {
	// Status mirrors the solve outcome.
	Status core.Status `json:"status"`

	// Rows holds one entry per (function, role) cell. Empty unless the
	// solve produced an assignment.
	Rows []Row `json:"rows,omitempty"`

	// RemovalCost is the penalty-weighted count of removed heads.
	RemovalCost float64 `json:"removalCost"`

	// TotalShortage is the total uncovered workload in hours.
	TotalShortage float64 `json:"totalShortage"`

	// NonOptimal is set when the assignment is a timeout incumbent
	// rather than a proven optimum.
	NonOptimal bool `json:"nonOptimal,omitempty"`

	// Detail carries the solver's diagnostic wording for non-solution
	// outcomes.
	Detail string `json:"detail,omitempty"`
}

// Solver is the solving pipeline the planner drives. Implemented by
// orchestrator.Orchestrator.
type Solver interface {
	Solve(ctx context.Context, spec core.ProblemSpec, budget time.Duration) (core.Outcome, error)
}

// Planner translates workforce requests into canonical models and
// interprets the solve results back into planning rows.
type Planner struct {
	solver Solver
}

// NewPlanner creates a Planner on top of the given solving pipeline.
func NewPlanner(solver Solver) *Planner {
	return &Planner{solver: solver}
}

// Optimize plans the workforce for one request. Input defects are
// returned as MalformedInput; solve outcomes map onto the Result status.
func (p *Planner) Optimize(ctx context.Context, req Request) (*Result, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	spec, names := buildSpec(req)

	outcome, err := p.solver.Solve(ctx, spec, 0)
	if err != nil {
		return nil, err
	}

	result := &Result{Status: outcome.Status, Detail: outcome.Detail}

	sol := outcome.Solution
	if sol == nil && outcome.Status == core.StatusTimeout {
		sol = outcome.BestFound
		result.NonOptimal = sol != nil
	}
	if sol == nil {
		return result, nil
	}

	p.fillRows(result, req, names, sol)
	return result, nil
}

// checkRequest validates the planning inputs before model construction.
func checkRequest(req Request) error {
	if len(req.Functions) == 0 {
		return core.NewError(core.KindMalformedInput, "no functions given")
	}
	if len(req.Roles) == 0 {
		return core.NewError(core.KindMalformedInput, "no roles given")
	}
	if req.Capacity <= 0 {
		return core.NewError(core.KindMalformedInput,
			"capacity must be > 0 hours per person, got %g", req.Capacity)
	}
	for _, f := range req.Functions {
		w, ok := req.Workload[f]
		if !ok {
			return core.NewError(core.KindMalformedInput, "no workload for function %q", f)
		}
		if w < 0 {
			return core.NewError(core.KindMalformedInput,
				"workload for function %q must be >= 0, got %g", f, w)
		}
	}
	for r, a := range req.Alpha {
		if a < 0 || a > 1 {
			return core.NewError(core.KindMalformedInput,
				"alpha for role %q must be in [0,1], got %g", r, a)
		}
	}
	return nil
}

// cellNames maps (function, role) cells and functions onto LP-safe
// variable names. Client-supplied function and role strings may contain
// characters the LP format rejects, so variables are named by index.
type cellNames struct {
	keep     map[[2]int]string // (function idx, role idx) -> keep variable
	shortage map[int]string    // function idx -> shortage variable
}

// buildSpec translates the request into a canonical problem spec.
func buildSpec(req Request) (core.ProblemSpec, cellNames) {
	names := cellNames{
		keep:     make(map[[2]int]string, len(req.Functions)*len(req.Roles)),
		shortage: make(map[int]string, len(req.Functions)),
	}

	spec := core.ProblemSpec{
		Name: "workforce",
		Objective: core.ObjectiveSpec{
			Direction:    core.DirectionMinimize,
			Coefficients: map[string]float64{},
		},
	}

	zero := 0.0
	for fi := range req.Functions {
		for ri, role := range req.Roles {
			name := fmt.Sprintf("keep_%d_%d", fi, ri)
			names.keep[[2]int{fi, ri}] = name
			upper := float64(req.currentAt(fi, ri))
			spec.Variables = append(spec.Variables, core.VariableSpec{
				Name:   name,
				Domain: core.DomainInteger,
				Lower:  &zero,
				Upper:  &upper,
			})
			// Minimizing penalty*(current - keep) is minimizing
			// -penalty*keep plus a constant; the constant is added back
			// when reporting the removal cost.
			spec.Objective.Coefficients[name] = -req.penaltyFor(role)
		}

		shortName := fmt.Sprintf("short_%d", fi)
		names.shortage[fi] = shortName
		spec.Variables = append(spec.Variables, core.VariableSpec{
			Name:   shortName,
			Domain: core.DomainContinuous,
			Lower:  &zero,
		})
		spec.Objective.Coefficients[shortName] = ShortagePenalty
	}

	for fi, f := range req.Functions {
		// Workload coverage: kept heads * capacity + shortage >= demand.
		cover := core.ConstraintSpec{
			Name:         fmt.Sprintf("cover_%d", fi),
			Coefficients: map[string]float64{names.shortage[fi]: 1},
			Operator:     core.OpGreaterEqual,
			RHS:          req.Workload[f],
		}
		for ri := range req.Roles {
			cover.Coefficients[names.keep[[2]int{fi, ri}]] = req.Capacity
		}
		spec.Constraints = append(spec.Constraints, cover)

		// Minimum role share: keep[f,r] >= alpha[r] * total kept in f,
		// rewritten as (1-alpha)*keep[f,r] - alpha*keep[f,r'] >= 0.
		// With a single role the relation holds for any alpha in [0,1]
		// and its only coefficient can degenerate to zero, so skip it.
		if len(req.Roles) == 1 {
			continue
		}
		for ri, role := range req.Roles {
			alpha := req.Alpha[role]
			if alpha <= 0 {
				continue
			}
			share := core.ConstraintSpec{
				Name:         fmt.Sprintf("share_%d_%d", fi, ri),
				Coefficients: map[string]float64{},
				Operator:     core.OpGreaterEqual,
				RHS:          0,
			}
			for rj := range req.Roles {
				coeff := -alpha
				if rj == ri {
					coeff = 1 - alpha
				}
				share.Coefficients[names.keep[[2]int{fi, rj}]] = coeff
			}
			spec.Constraints = append(spec.Constraints, share)
		}
	}

	return spec, names
}

// fillRows converts the solved assignment back into planning rows.
func (p *Planner) fillRows(result *Result, req Request, names cellNames, sol *core.Solution) {
	result.Rows = make([]Row, 0, len(req.Functions)*len(req.Roles))

	for fi, f := range req.Functions {
		keptTotal := 0
		for ri := range req.Roles {
			keptTotal += int(math.Round(sol.Value(names.keep[[2]int{fi, ri}])))
		}
		workload := req.Workload[f]
		capacity := float64(keptTotal) * req.Capacity
		shortage := sol.Value(names.shortage[fi])
		result.TotalShortage += shortage

		for ri, role := range req.Roles {
			current := req.currentAt(fi, ri)
			kept := int(math.Round(sol.Value(names.keep[[2]int{fi, ri}])))
			removed := current - kept
			result.RemovalCost += req.penaltyFor(role) * float64(removed)

			result.Rows = append(result.Rows, Row{
				Function: f,
				Role:     role,
				Current:  current,
				Optimal:  kept,
				Removed:  removed,
				Workload: round2(workload),
				Capacity: round2(capacity),
				Shortage: round2(shortage),
			})
		}
	}

	result.RemovalCost = round2(result.RemovalCost)
	result.TotalShortage = round2(result.TotalShortage)
}

// currentAt returns today's headcount for a (function, role) cell. Cells
// are keyed "function|role" in the request; missing cells are 0.
func (req Request) currentAt(fi, ri int) int {
	key := req.Functions[fi] + "|" + req.Roles[ri]
	return req.CurrentHeadcount[key]
}

// penaltyFor returns the removal penalty weight for a role.
func (req Request) penaltyFor(role string) float64 {
	if p, ok := req.Penalty[role]; ok {
		return p
	}
	return DefaultRemovalPenalty
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
