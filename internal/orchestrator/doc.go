// Package orchestrator drives the per-request solving pipeline.
//
// The orchestrator composes the core model builder, the validator, and
// the solver engine for each incoming request:
//
//	Problem spec → Build → Validate → Solve → Outcome
//	               (core)   (core)   (solver)
//
// Each request is an independent, isolated solve: models and solutions
// are request-scoped and never shared. The only shared resource is the
// concurrency semaphore bounding simultaneous active solves; a permit is
// acquired before a solve starts and released on every exit path. When
// the ceiling is reached the request is rejected immediately with
// ServiceBusy rather than queued unboundedly.
//
// Error handling:
//
//   - Build failures → MalformedInput, surfaced with detail
//   - Validation failures → InvalidModel or ProblemTooLarge
//   - Launch failures → SolverUnavailable, logged and surfaced
//   - Budget exhaustion → a timeout outcome, distinct from errors
//
// No retries are performed: a solve is not assumed idempotent-safe to
// retry without the client being aware of the resources already spent.
package orchestrator
