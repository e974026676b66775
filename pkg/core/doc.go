// Package core provides the canonical data structures and business logic for
// the optiserve solving pipeline.
//
// This package contains the solver-agnostic domain models that represent an
// optimization problem and its outcome:
//
//   - Variable: a decision variable with a domain and bounds
//   - Constraint: a linear expression related to a right-hand side
//   - Objective: a linear expression with an optimization direction
//   - Model: the immutable aggregate built from a client problem spec
//   - Solution: a variable assignment with its objective value
//   - Outcome: the closed set of terminal solve results
//
// These types form the foundation for the solver adapter in pkg/solver and
// are used throughout the service for decision-making.
//
// Example usage:
//
//	// Build a canonical model from a client problem spec
//	model, err := core.BuildModel(spec)
//	if err != nil {
//	    return err // MalformedInput
//	}
//
//	// Validate structural consistency and size limits
//	if err := core.ValidateModel(model, limits); err != nil {
//	    return err // InvalidModel or ProblemTooLarge
//	}
//
// The core package is designed to be:
//   - Immutable where possible (models are never mutated after build)
//   - Type-safe with strong domain boundaries
//   - Independent of transport and solver APIs (pure domain logic)
//   - Well-tested with comprehensive unit tests
package core
