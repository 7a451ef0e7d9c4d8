// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// NewRouter builds the chi router with the full middleware chain and
// route table.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders())
	r.Use(RequestLogger())
	r.Use(MetricsMiddleware())
	r.Use(rateLimit(cfg))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Get("/users", handler.ListUsers)
		r.Get("/recommendations/{user_id}", handler.GetRecommendations)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimit returns the per-IP rate limiting middleware, or a no-op
// when disabled.
func rateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
			NewResponseWriter(w, req).TooManyRequests("rate limit exceeded")
		}),
	)
}
