// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MarekSosnicki/bookservice/internal/bookservice"
	"github.com/MarekSosnicki/bookservice/internal/logging"
	"github.com/MarekSosnicki/bookservice/internal/recommend"
)

// Handler serves the query-side endpoints. All reads go against the
// materialized recommendation sets and coefficient indexes; no request
// ever triggers a collaborator call.
type Handler struct {
	engine       *recommend.RecommendationsEngine
	coefficients *recommend.CoefficientsStorage
	startTime    time.Time
}

// NewHandler creates the API handler.
func NewHandler(engine *recommend.RecommendationsEngine, coefficients *recommend.CoefficientsStorage) *Handler {
	return &Handler{
		engine:       engine,
		coefficients: coefficients,
		startTime:    time.Now(),
	}
}

// recommendationsResponse is the payload of the recommendations lookup.
type recommendationsResponse struct {
	UserID bookservice.UserID `json:"user_id"`
	recommend.RecommendationSet
}

// GetRecommendations handles GET /api/v1/recommendations/{user_id}.
// Unknown users get the empty set, not a 404; the scheduler simply has
// not seen them yet.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	raw := chi.URLParam(r, "user_id")
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		logging.Debug().Str("user_id", raw).Msg("Rejected non-numeric user id")
		rw.BadRequest("user_id must be a valid integer")
		return
	}

	userID := bookservice.UserID(parsed)
	rw.Success(recommendationsResponse{
		UserID:            userID,
		RecommendationSet: h.engine.GetRecommendations(userID),
	})
}

// usersResponse is the payload of the known-users listing.
type usersResponse struct {
	Users []bookservice.UserID `json:"users"`
	Count int                  `json:"count"`
}

// ListUsers handles GET /api/v1/users. It lists the users that have a
// materialized recommendation set.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.engine.KnownUsers()
	if users == nil {
		users = []bookservice.UserID{}
	}

	NewResponseWriter(w, r).Success(usersResponse{
		Users: users,
		Count: len(users),
	})
}

// healthResponse is the payload of the health endpoint.
type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	KnownUsers    int    `json:"known_users"`
	CatalogBooks  int    `json:"catalog_books"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	books, _ := h.coefficients.CatalogSize()

	NewResponseWriter(w, r).Success(healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		KnownUsers:    h.engine.Len(),
		CatalogBooks:  books,
	})
}
