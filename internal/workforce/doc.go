// Package workforce implements headcount planning on top of the generic
// solving pipeline.
//
// Given per-function workloads, per-role current headcounts, and removal
// penalty weights, the planner builds a mixed-integer model that chooses
// how many people to keep in each (function, role) cell:
//
//   - keep[f,r] is integer in [0, current[f,r]]
//   - workload coverage: kept headcount * capacity + shortage >= workload
//   - minimum role share: keep[f,r] >= alpha[r] * total kept in f
//   - objective: minimize penalty-weighted removals plus a large penalty
//     on any workload shortage
//
// The shortage slack keeps the model feasible even when the current
// workforce cannot cover the workload; a nonzero shortage in the result
// tells the caller coverage is impossible, not that the solve failed.
package workforce
