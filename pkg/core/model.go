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

import (
	"math"
)

// Domain represents the value domain of a decision variable.
type Domain string

const (
	// DomainContinuous allows any real value within the variable bounds.
	DomainContinuous Domain = "continuous"

	// DomainInteger restricts the variable to integer values.
	DomainInteger Domain = "integer"

	// DomainBinary restricts the variable to {0, 1}.
	DomainBinary Domain = "binary"
)

// Direction represents the optimization direction of the objective.
type Direction string

const (
	DirectionMinimize Direction = "minimize"
	DirectionMaximize Direction = "maximize"
)

// Operator represents the relational operator of a linear constraint.
type Operator string

const (
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpGreaterEqual Operator = ">="
)

// VariableSpec declares a decision variable in a client problem spec.
// Bounds default to [0, +inf) when omitted, the LP-format convention.
type VariableSpec struct {
	// Name is the variable identifier, unique within the problem.
	Name string `json:"name" yaml:"name"`

	// Domain is one of continuous, integer, binary. Empty means continuous.
	Domain Domain `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Lower is the lower bound. Nil means 0.
	Lower *float64 `json:"lower,omitempty" yaml:"lower,omitempty"`

	// Upper is the upper bound. Nil means +inf.
	Upper *float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
}

// ConstraintSpec declares a linear constraint in a client problem spec.
type ConstraintSpec struct {
	// Name identifies the constraint in diagnostics. Optional; a stable
	// name is generated from the constraint index when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Coefficients maps variable names to their coefficients on the
	// left-hand side. Variables absent from the map have coefficient 0.
	Coefficients map[string]float64 `json:"coefficients" yaml:"coefficients"`

	// Operator relates the left-hand side to the right-hand side.
	Operator Operator `json:"operator" yaml:"operator"`

	// RHS is the right-hand-side scalar.
	RHS float64 `json:"rhs" yaml:"rhs"`
}

// ObjectiveSpec declares the objective in a client problem spec.
type ObjectiveSpec struct {
	// Direction is minimize or maximize.
	Direction Direction `json:"direction" yaml:"direction"`

	// Coefficients maps variable names to objective coefficients.
	Coefficients map[string]float64 `json:"coefficients" yaml:"coefficients"`
}

// ProblemSpec is the transport-independent description of one LP/MILP
// problem as supplied by a client. It is the input to BuildModel.
type ProblemSpec struct {
	// Name labels the problem in logs and solver artifacts. Optional.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Objective   ObjectiveSpec    `json:"objective" yaml:"objective"`
	Variables   []VariableSpec   `json:"variables" yaml:"variables"`
	Constraints []ConstraintSpec `json:"constraints" yaml:"constraints"`
}

// Variable is a canonical decision variable with resolved bounds.
type Variable struct {
	// Name is the unique variable identifier.
	Name string

	// Index is the stable internal index, assigned by order of first
	// appearance in the problem spec. Used for dense coefficient layouts.
	Index int

	// Domain is the variable's value domain.
	Domain Domain

	// Lower and Upper are the resolved bounds. Infinities are explicit:
	// an absent upper bound is math.Inf(1), an absent lower bound is 0.
	Lower float64
	Upper float64
}

// IsIntegral reports whether the variable is restricted to integer values.
func (v Variable) IsIntegral() bool {
	return v.Domain == DomainInteger || v.Domain == DomainBinary
}

// Constraint is a canonical linear constraint with dense naming resolved.
type Constraint struct {
	// Name is the constraint identifier used in solver artifacts.
	Name string

	// Terms holds the nonzero coefficients, keyed by variable index.
	Terms map[int]float64

	// Operator relates the linear expression to RHS.
	Operator Operator

	// RHS is the right-hand-side scalar.
	RHS float64
}

// Objective is the canonical objective function.
type Objective struct {
	// Direction is minimize or maximize.
	Direction Direction

	// Coefficients holds the objective coefficient of every variable,
	// indexed by variable index. Length equals the variable count.
	Coefficients []float64
}

// Model is the canonical, immutable representation of one LP/MILP problem.
// A model is created per request and discarded after the response is
// produced; it is never cached or shared across requests.
type Model struct {
	// Name labels the model in logs and solver artifacts.
	Name string

	// Variables are ordered by their stable internal index.
	Variables []Variable

	// Constraints are ordered as declared in the problem spec.
	Constraints []Constraint

	// Objective is the single objective function.
	Objective Objective

	byName map[string]int
}

// NumVariables returns the number of decision variables.
func (m *Model) NumVariables() int { return len(m.Variables) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.Constraints) }

// VariableIndex returns the internal index of the named variable.
func (m *Model) VariableIndex(name string) (int, bool) {
	i, ok := m.byName[name]
	return i, ok
}

// IsMIP reports whether the model has at least one integral variable,
// requiring a branch-and-bound solve rather than plain simplex.
func (m *Model) IsMIP() bool {
	for _, v := range m.Variables {
		if v.IsIntegral() {
			return true
		}
	}
	return false
}

// Solution is a variable assignment produced by a solve. It is owned by
// the request that produced it.
type Solution struct {
	// Values maps variable names to their assigned values.
	Values map[string]float64

	// Objective is the objective function value at this assignment.
	Objective float64
}

// Value returns the assigned value of the named variable, or 0 if the
// variable is not present in the solution.
func (s *Solution) Value(name string) float64 {
	if s == nil {
		return 0
	}
	return s.Values[name]
}

// Inf returns positive infinity, the canonical absent upper bound.
func Inf() float64 { return math.Inf(1) }

// NegInf returns negative infinity, the canonical absent lower bound for
// free variables.
func NegInf() float64 { return math.Inf(-1) }
