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

// Limits bounds the size of models admitted to the solver, keeping
// worst-case solve time under control.
type Limits struct {
	// MaxProblemSize caps variables * constraints. Zero means unlimited.
	MaxProblemSize int
}

// ValidateModel checks a canonical model for semantic consistency before
// it is handed to the solver adapter. It returns nil when the model is
// admissible, KindInvalidModel for inconsistent models, and
// KindProblemTooLarge when the size ceiling is exceeded.
func ValidateModel(m *Model, limits Limits) error {
	if m.NumVariables() == 0 {
		return NewError(KindInvalidModel, "model has no variables")
	}

	for _, v := range m.Variables {
		if err := validateBounds(v); err != nil {
			return err
		}
	}

	if limits.MaxProblemSize > 0 {
		size := m.NumVariables() * m.NumConstraints()
		if size > limits.MaxProblemSize {
			return NewError(KindProblemTooLarge,
				"problem size %d (%d variables x %d constraints) exceeds limit %d",
				size, m.NumVariables(), m.NumConstraints(), limits.MaxProblemSize)
		}
	}

	return nil
}

// validateBounds checks one variable's bounds against its domain.
func validateBounds(v Variable) error {
	if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
		return NewError(KindInvalidModel, "variable %q has NaN bound", v.Name)
	}
	if v.Lower > v.Upper {
		return NewError(KindInvalidModel,
			"variable %q has lower bound %g above upper bound %g", v.Name, v.Lower, v.Upper)
	}

	switch v.Domain {
	case DomainBinary:
		if v.Lower < 0 || v.Upper > 1 {
			return NewError(KindInvalidModel,
				"binary variable %q must have bounds within [0,1], got [%g,%g]",
				v.Name, v.Lower, v.Upper)
		}
	case DomainInteger:
		// An integer variable with no integer point between its bounds
		// can never be feasible; reject it here rather than burning a
		// solver invocation.
		if !math.IsInf(v.Lower, -1) && !math.IsInf(v.Upper, 1) &&
			math.Ceil(v.Lower) > math.Floor(v.Upper) {
			return NewError(KindInvalidModel,
				"integer variable %q has no integer value within [%g,%g]",
				v.Name, v.Lower, v.Upper)
		}
	}

	return nil
}
