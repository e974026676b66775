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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/optiserve/optiserve/internal/workforce"
	"github.com/optiserve/optiserve/pkg/core"
)

// maxRequestBodyBytes bounds request payload size. Problems near the
// size ceiling fit comfortably; anything larger is hostile or a mistake.
const maxRequestBodyBytes = 8 << 20 // 8 MiB

// solveRequest is the wire form of a generic solve call.
type solveRequest struct {
	core.ProblemSpec

	// TimeoutSeconds optionally lowers the solve budget below the
	// configured maximum. Values above the maximum are capped.
	TimeoutSeconds float64 `json:"timeoutSeconds,omitempty"`
}

// solutionPayload is the wire form of a variable assignment.
type solutionPayload struct {
	Values    map[string]float64 `json:"values"`
	Objective float64            `json:"objective"`
}

// errorPayload carries a failure classification to the client.
type errorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// solveResponse is the wire form of a solve result.
type solveResponse struct {
	Status string `json:"status"`

	// Solution is set for optimal outcomes.
	Solution *solutionPayload `json:"solution,omitempty"`

	// BestFound is the non-optimal incumbent of a timed-out solve.
	BestFound *solutionPayload `json:"bestFound,omitempty"`

	Error *errorPayload `json:"error,omitempty"`
}

// handleSolve serves POST /v1/solve.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	budget := time.Duration(req.TimeoutSeconds * float64(time.Second))

	start := time.Now()
	s.metrics.SolveStarted()
	outcome, err := s.orchestrator.Solve(r.Context(), req.ProblemSpec, budget)
	s.metrics.SolveFinished()

	if err != nil {
		s.writeSolveError(w, err)
		return
	}

	s.metrics.ObserveSolve(string(outcome.Status), time.Since(start))
	s.writeJSON(w, statusCodeFor(outcome.Status), solveResponseFor(outcome))
}

// handleWorkforce serves POST /v1/workforce/optimize.
func (s *Server) handleWorkforce(w http.ResponseWriter, r *http.Request) {
	var req workforce.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	s.metrics.SolveStarted()
	result, err := s.planner.Optimize(r.Context(), req)
	s.metrics.SolveFinished()

	if err != nil {
		s.writeSolveError(w, err)
		return
	}

	s.metrics.ObserveSolve(string(result.Status), time.Since(start))
	s.writeJSON(w, statusCodeFor(result.Status), result)
}

// handleHealthz serves GET /healthz. The probe fails when the solver
// binary cannot be invoked, since every solve would then fail.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.orchestrator.Healthy(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.metrics.ObserveRejection(string(core.KindMalformedInput))
		s.writeErrorPayload(w, http.StatusBadRequest, core.KindMalformedInput,
			"invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeSolveError maps a classified pipeline error onto a transport
// status. Client-input errors surface their detail; service-side errors
// surface only the kind, with detail left in the logs.
func (s *Server) writeSolveError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// The client disconnected mid-solve; nobody is reading the
		// response.
		s.logger.V(1).Info("Request abandoned mid-solve")
		return
	}

	kind := core.KindOf(err)
	s.metrics.ObserveRejection(string(kind))

	detail := ""
	var ce *core.Error
	if errors.As(err, &ce) {
		detail = ce.Detail
	}
	if !kind.IsClientError() && kind != core.KindServiceBusy {
		s.logger.Error(err, "Solve pipeline failure", "kind", string(kind))
		detail = ""
	}

	s.writeErrorPayload(w, errorStatusCodeFor(kind), kind, detail)
}

func (s *Server) writeErrorPayload(w http.ResponseWriter, code int, kind core.ErrorKind, detail string) {
	s.writeJSON(w, code, solveResponse{
		Status: "error",
		Error:  &errorPayload{Kind: string(kind), Detail: detail},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "Failed to encode response")
	}
}

// solveResponseFor converts an outcome into its wire form.
func solveResponseFor(outcome core.Outcome) solveResponse {
	resp := solveResponse{Status: string(outcome.Status)}
	if outcome.Solution != nil {
		resp.Solution = &solutionPayload{
			Values:    outcome.Solution.Values,
			Objective: outcome.Solution.Objective,
		}
	}
	if outcome.BestFound != nil {
		resp.BestFound = &solutionPayload{
			Values:    outcome.BestFound.Values,
			Objective: outcome.BestFound.Objective,
		}
	}
	if outcome.Status == core.StatusSolverError {
		resp.Error = &errorPayload{Kind: string(core.KindSolverError), Detail: outcome.Detail}
	}
	return resp
}

// statusCodeFor maps outcome statuses onto HTTP codes. Infeasible and
// unbounded are successful solves of unsatisfiable models, not errors.
func statusCodeFor(status core.Status) int {
	switch status {
	case core.StatusTimeout:
		return http.StatusGatewayTimeout
	case core.StatusSolverError:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// errorStatusCodeFor maps pipeline error kinds onto HTTP codes.
func errorStatusCodeFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindMalformedInput, core.KindInvalidModel:
		return http.StatusBadRequest
	case core.KindProblemTooLarge:
		return http.StatusRequestEntityTooLarge
	case core.KindServiceBusy:
		return http.StatusTooManyRequests
	case core.KindSolverTimeout:
		return http.StatusGatewayTimeout
	case core.KindSolverUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
