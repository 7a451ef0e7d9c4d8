// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendations service:
// - scheduler tick progress and tier outcomes
// - collaborator (reservations / repository) call outcomes
// - circuit breaker state
// - engine size gauges
// - API endpoint latency and throughput

var (
	// Scheduler Metrics
	SchedulerTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_scheduler_ticks_total",
			Help: "Total number of completed scheduler ticks",
		},
	)

	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendations_scheduler_tick_duration_seconds",
			Help:    "Duration of scheduler ticks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TierUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_tier_users_processed_total",
			Help: "Users successfully processed per scheduler tier",
		},
		[]string{"tier"}, // "new_user", "sampled"
	)

	TierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_tier_failures_total",
			Help: "Failed units of work per scheduler tier",
		},
		[]string{"tier"}, // "new_user", "sampled", "catalog"
	)

	CatalogRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_catalog_refreshes_total",
			Help: "Total number of successful catalog refreshes",
		},
	)

	// Engine Gauges
	KnownUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_known_users",
			Help: "Number of users with a materialized recommendation set",
		},
	)

	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_catalog_books",
			Help: "Number of books in the last refreshed catalog",
		},
	)

	CatalogAuthors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_catalog_authors",
			Help: "Number of distinct authors in the last refreshed catalog",
		},
	)

	// Collaborator Metrics
	CollaboratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_collaborator_requests_total",
			Help: "Collaborator API requests by outcome",
		},
		[]string{"collaborator", "outcome"}, // outcome: "success", "failure", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommendations_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"collaborator"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"collaborator", "from", "to"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
