// Package solver invokes the external GLPK engine for the optiserve service.
//
// The solver package owns the boundary between the canonical model and the
// black-box solving engine. It contains:
//
//   - Writer: serializes a core.Model into CPLEX LP format
//   - Runner: launches glpsol as an isolated process with a hard time limit
//   - Interpreter: maps glpsol's textual output into a typed core.Outcome
//   - Engine: composes the three behind the orchestrator-facing interface
//
// Solve lifecycle:
//
//  1. Allocate a scoped temporary workspace
//  2. Write the model in LP format
//  3. Run glpsol with --tmlim and a context deadline
//  4. Parse the solution file into an Outcome
//  5. Remove the workspace on every exit path
//
// Example usage:
//
//	engine := solver.NewEngine(solver.Config{Path: "glpsol"}, logger)
//	outcome, err := engine.Solve(ctx, model, 30*time.Second)
//	if err != nil {
//	    return err // SolverUnavailable or SolverTimeout
//	}
//
// The status mapping is exhaustive: any status text the interpreter does
// not recognize becomes StatusSolverError with the raw output attached,
// never a silent Optimal. Output parsing is deliberately defensive since
// the format drifts across GLPK versions.
package solver
