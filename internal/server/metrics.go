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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instruments on a private
// registry, so tests can create throwaway instances without global
// registration conflicts.
type Metrics struct {
	registry *prometheus.Registry

	solvesTotal   *prometheus.CounterVec
	rejectedTotal *prometheus.CounterVec
	solveDuration prometheus.Histogram
	activeSolves  prometheus.Gauge
}

// NewMetrics creates and registers the service metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optiserve_solves_total",
			Help: "Completed solves by terminal outcome status.",
		}, []string{"outcome"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optiserve_rejected_total",
			Help: "Requests rejected before the solver ran, by reason.",
		}, []string{"reason"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optiserve_solve_duration_seconds",
			Help:    "End-to-end solve pipeline duration.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		activeSolves: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optiserve_active_solves",
			Help: "Solves currently holding a concurrency permit.",
		}),
	}

	m.registry.MustRegister(
		m.solvesTotal,
		m.rejectedTotal,
		m.solveDuration,
		m.activeSolves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSolve records one completed solve.
func (m *Metrics) ObserveSolve(outcome string, elapsed time.Duration) {
	m.solvesTotal.WithLabelValues(outcome).Inc()
	m.solveDuration.Observe(elapsed.Seconds())
}

// ObserveRejection records one request rejected before solving.
func (m *Metrics) ObserveRejection(reason string) {
	m.rejectedTotal.WithLabelValues(reason).Inc()
}

// SolveStarted and SolveFinished track the active-solves gauge.
func (m *Metrics) SolveStarted()  { m.activeSolves.Inc() }
func (m *Metrics) SolveFinished() { m.activeSolves.Dec() }
