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
	"fmt"
	"sort"
)

// DefaultModelName labels models whose problem spec carries no name.
const DefaultModelName = "problem"

// BuildModel translates a client problem spec into a canonical Model.
// Variables receive stable internal indices by order of first appearance
// in the spec. Failures are reported as KindMalformedInput.
func BuildModel(spec ProblemSpec) (*Model, error) {
	name := spec.Name
	if name == "" {
		name = DefaultModelName
	}

	m := &Model{
		Name:      name,
		Variables: make([]Variable, 0, len(spec.Variables)),
		byName:    make(map[string]int, len(spec.Variables)),
	}

	for _, vs := range spec.Variables {
		if vs.Name == "" {
			return nil, NewError(KindMalformedInput, "variable at position %d has no name", len(m.Variables))
		}
		if _, exists := m.byName[vs.Name]; exists {
			return nil, NewError(KindMalformedInput, "duplicate variable %q", vs.Name)
		}
		v, err := buildVariable(vs, len(m.Variables))
		if err != nil {
			return nil, err
		}
		m.byName[v.Name] = v.Index
		m.Variables = append(m.Variables, v)
	}

	obj, err := buildObjective(m, spec.Objective)
	if err != nil {
		return nil, err
	}
	m.Objective = obj

	m.Constraints = make([]Constraint, 0, len(spec.Constraints))
	for i, cs := range spec.Constraints {
		c, err := buildConstraint(m, cs, i)
		if err != nil {
			return nil, err
		}
		m.Constraints = append(m.Constraints, c)
	}

	return m, nil
}

// buildVariable resolves domain and bound defaults for one variable.
func buildVariable(spec VariableSpec, index int) (Variable, error) {
	v := Variable{
		Name:  spec.Name,
		Index: index,
	}

	switch spec.Domain {
	case DomainContinuous, DomainInteger, DomainBinary:
		v.Domain = spec.Domain
	case "":
		v.Domain = DomainContinuous
	default:
		return Variable{}, NewError(KindMalformedInput,
			"variable %q: unknown domain %q", spec.Name, spec.Domain)
	}

	// LP-format default bounds: [0, +inf). Binary defaults to [0, 1];
	// explicit client bounds are kept and checked by the validator.
	v.Lower = 0
	v.Upper = Inf()
	if v.Domain == DomainBinary {
		v.Upper = 1
	}
	if spec.Lower != nil {
		v.Lower = *spec.Lower
	}
	if spec.Upper != nil {
		v.Upper = *spec.Upper
	}

	return v, nil
}

// buildObjective maps named objective coefficients onto the dense index
// layout. Every declared variable gets a slot, zero when absent.
func buildObjective(m *Model, spec ObjectiveSpec) (Objective, error) {
	var dir Direction
	switch spec.Direction {
	case DirectionMinimize, DirectionMaximize:
		dir = spec.Direction
	case "min":
		dir = DirectionMinimize
	case "max":
		dir = DirectionMaximize
	default:
		return Objective{}, NewError(KindMalformedInput,
			"unknown objective direction %q", spec.Direction)
	}

	coeffs := make([]float64, len(m.Variables))
	for name, c := range spec.Coefficients {
		idx, ok := m.byName[name]
		if !ok {
			return Objective{}, NewError(KindMalformedInput,
				"objective references undeclared variable %q", name)
		}
		coeffs[idx] = c
	}

	return Objective{Direction: dir, Coefficients: coeffs}, nil
}

// buildConstraint resolves variable references and normalizes the
// relational operator into the solver's accepted set.
func buildConstraint(m *Model, spec ConstraintSpec, position int) (Constraint, error) {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("c%d", position+1)
	}

	op, err := normalizeOperator(spec.Operator)
	if err != nil {
		return Constraint{}, NewError(KindMalformedInput,
			"constraint %q: %v", name, err)
	}

	if len(spec.Coefficients) == 0 {
		return Constraint{}, NewError(KindMalformedInput,
			"constraint %q has no coefficients", name)
	}

	terms := make(map[int]float64, len(spec.Coefficients))
	for varName, c := range spec.Coefficients {
		idx, ok := m.byName[varName]
		if !ok {
			return Constraint{}, NewError(KindMalformedInput,
				"constraint %q references undeclared variable %q", name, varName)
		}
		if c != 0 {
			terms[idx] = c
		}
	}
	if len(terms) == 0 {
		return Constraint{}, NewError(KindMalformedInput,
			"constraint %q has no nonzero coefficients", name)
	}

	return Constraint{
		Name:     name,
		Terms:    terms,
		Operator: op,
		RHS:      spec.RHS,
	}, nil
}

// normalizeOperator maps operator spellings onto the canonical set.
// GLPK's LP format supports <=, =, >= natively, so no equality split
// into inequality pairs is needed.
func normalizeOperator(op Operator) (Operator, error) {
	switch op {
	case OpLessEqual, "<", "=<":
		return OpLessEqual, nil
	case OpEqual, "==":
		return OpEqual, nil
	case OpGreaterEqual, ">", "=>":
		return OpGreaterEqual, nil
	default:
		return "", fmt.Errorf("unknown operator %q", op)
	}
}

// TermIndices returns the variable indices of a constraint's nonzero
// terms in ascending order, for deterministic serialization.
func (c Constraint) TermIndices() []int {
	indices := make([]int, 0, len(c.Terms))
	for idx := range c.Terms {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
