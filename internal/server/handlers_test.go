package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiserve/optiserve/internal/config"
	"github.com/optiserve/optiserve/internal/logging"
	"github.com/optiserve/optiserve/internal/orchestrator"
	"github.com/optiserve/optiserve/pkg/core"
)

// stubEngine returns a fixed outcome or error for every solve.
type stubEngine struct {
	outcome      core.Outcome
	err          error
	availableErr error
}

func (s *stubEngine) Solve(context.Context, *core.Model, time.Duration) (core.Outcome, error) {
	return s.outcome, s.err
}

func (s *stubEngine) Available() error { return s.availableErr }

func newTestServer(t *testing.T, engine orchestrator.SolveEngine) *Server {
	t.Helper()
	cfg := &config.Config{
		ListenAddr:          ":0",
		MaxConcurrentSolves: 2,
		SolveTimeout:        5 * time.Second,
		MaxProblemSize:      1000,
		CORSAllowedOrigins:  []string{"*"},
		DrainTimeout:        time.Second,
		LogLevel:            "info",
	}
	orc, err := orchestrator.New(engine, orchestrator.Config{
		MaxConcurrentSolves: cfg.MaxConcurrentSolves,
		DefaultTimeout:      cfg.SolveTimeout,
		Limits:              core.Limits{MaxProblemSize: cfg.MaxProblemSize},
	}, logging.NewTestLogger())
	require.NoError(t, err)
	return New(cfg, orc, logging.NewTestLogger())
}

const solveBody = `{
	"name": "sample",
	"objective": {"direction": "maximize", "coefficients": {"x": 1}},
	"variables": [{"name": "x", "upper": 10}],
	"constraints": [{"coefficients": {"x": 1}, "operator": "<=", "rhs": 10}]
}`

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleSolveOptimal(t *testing.T) {
	engine := &stubEngine{
		outcome: core.OptimalOutcome(&core.Solution{
			Values:    map[string]float64{"x": 10},
			Objective: 10,
		}),
	}
	rec := postJSON(t, newTestServer(t, engine), "/v1/solve", solveBody)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp solveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "optimal", resp.Status)
	require.NotNil(t, resp.Solution)
	assert.Equal(t, 10.0, resp.Solution.Values["x"])
	assert.Equal(t, 10.0, resp.Solution.Objective)
	assert.Nil(t, resp.Error)
}

func TestHandleSolveInfeasibleIsOK(t *testing.T) {
	engine := &stubEngine{outcome: core.InfeasibleOutcome("INFEASIBLE")}
	rec := postJSON(t, newTestServer(t, engine), "/v1/solve", solveBody)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp solveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "infeasible", resp.Status)
	assert.Nil(t, resp.Solution)
}

func TestHandleSolveTimeoutCarriesIncumbent(t *testing.T) {
	engine := &stubEngine{
		outcome: core.TimeoutOutcome(&core.Solution{Values: map[string]float64{"x": 4}, Objective: 4}),
	}
	rec := postJSON(t, newTestServer(t, engine), "/v1/solve", solveBody)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	var resp solveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "timeout", resp.Status)
	assert.Nil(t, resp.Solution)
	require.NotNil(t, resp.BestFound)
	assert.Equal(t, 4.0, resp.BestFound.Values["x"])
}

func TestHandleSolveErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "malformed JSON",
			body:     `{"objective": `,
			wantCode: http.StatusBadRequest,
			wantKind: "MalformedInput",
		},
		{
			name:     "unknown field",
			body:     `{"surprise": true}`,
			wantCode: http.StatusBadRequest,
			wantKind: "MalformedInput",
		},
		{
			name:     "undeclared variable",
			body:     `{"objective":{"direction":"minimize","coefficients":{"ghost":1}},"variables":[{"name":"x"}]}`,
			wantCode: http.StatusBadRequest,
			wantKind: "MalformedInput",
		},
		{
			name:     "empty model",
			body:     `{"objective":{"direction":"minimize"}}`,
			wantCode: http.StatusBadRequest,
			wantKind: "InvalidModel",
		},
		{
			name:     "solver unavailable",
			body:     solveBody,
			err:      core.NewError(core.KindSolverUnavailable, "no glpsol"),
			wantCode: http.StatusServiceUnavailable,
			wantKind: "SolverUnavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{err: tt.err}
			rec := postJSON(t, newTestServer(t, engine), "/v1/solve", tt.body)

			require.Equal(t, tt.wantCode, rec.Code)
			var resp solveResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantKind, resp.Error.Kind)
		})
	}
}

func TestHandleSolveClientGoneWritesNothing(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("solve abandoned: %w", context.Canceled)}
	s := newTestServer(t, engine)

	req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(solveBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	// The client disconnected; no error payload goes onto the wire.
	assert.Zero(t, rec.Body.Len())
}

func TestHandleSolveHidesServiceErrorDetail(t *testing.T) {
	engine := &stubEngine{err: core.NewError(core.KindSolverUnavailable, "/secret/path/glpsol missing")}
	rec := postJSON(t, newTestServer(t, engine), "/v1/solve", solveBody)

	var resp solveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Detail)
}

func TestHandleWorkforce(t *testing.T) {
	// keep_0_0 kept at 2 of 3 heads, no shortage.
	engine := &stubEngine{
		outcome: core.OptimalOutcome(&core.Solution{
			Values:    map[string]float64{"keep_0_0": 2, "short_0": 0},
			Objective: -2,
		}),
	}
	body := `{
		"functions": ["ops"],
		"roles": ["analyst"],
		"workload": {"ops": 12},
		"capacity": 6,
		"currentHeadcount": {"ops|analyst": 3}
	}`
	rec := postJSON(t, newTestServer(t, engine), "/v1/workforce/optimize", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Rows   []struct {
			Function string  `json:"function"`
			Role     string  `json:"role"`
			Current  int     `json:"current"`
			Optimal  int     `json:"optimal"`
			Removed  int     `json:"removed"`
			Capacity float64 `json:"capacity"`
		} `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "optimal", resp.Status)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 3, resp.Rows[0].Current)
	assert.Equal(t, 2, resp.Rows[0].Optimal)
	assert.Equal(t, 1, resp.Rows[0].Removed)
	assert.Equal(t, 12.0, resp.Rows[0].Capacity)
}

func TestHandleHealthz(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		s := newTestServer(t, &stubEngine{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("solver missing", func(t *testing.T) {
		s := newTestServer(t, &stubEngine{availableErr: core.NewError(core.KindSolverUnavailable, "nope")})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubEngine{outcome: core.InfeasibleOutcome("")})
	postJSON(t, s, "/v1/solve", solveBody)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "optiserve_solves_total")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &stubEngine{})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/solve", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		s.cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
		req := httptest.NewRequest(http.MethodOptions, "/v1/solve", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

		req.Header.Set("Origin", "https://app.example.com")
		rec = httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestBodyLimit(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	huge := bytes.Repeat([]byte("x"), maxRequestBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(huge))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
