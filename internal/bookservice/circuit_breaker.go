// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MarekSosnicki/bookservice/internal/logging"
	"github.com/MarekSosnicki/bookservice/internal/metrics"
)

// Circuit breaker wrappers for the collaborator clients. The breaker
// prevents hammering a collaborator that is down: once it opens, calls are
// rejected locally until the timeout elapses. The scheduler treats
// rejections like any other collaborator failure, so an open breaker
// degrades freshness of recommendations, never their availability.
//
// The breaker uses real time for its interval and timeout calculations.
// Unit tests should exercise the wrapped client directly.

// newCollaboratorBreaker builds a gobreaker instance with the shared
// settings: opens at >= 60% failures over at least 10 requests in a
// one-minute window, probes again after two minutes.
func newCollaboratorBreaker(name string) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Str("collaborator", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)

			logging.Info().
				Str("collaborator", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// recordOutcome updates the collaborator request counters for a breaker
// execution result.
func recordOutcome(name string, err error) {
	switch {
	case err == nil:
		metrics.CollaboratorRequests.WithLabelValues(name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CollaboratorRequests.WithLabelValues(name, "rejected").Inc()
		logging.Warn().Str("collaborator", name).Err(err).Msg("request rejected by circuit breaker")
	default:
		metrics.CollaboratorRequests.WithLabelValues(name, "failure").Inc()
	}
}

// Ensure breaker wrappers satisfy the collaborator interfaces
var (
	_ HistorySource = (*HistorySourceBreaker)(nil)
	_ BookCatalog   = (*BookCatalogBreaker)(nil)
)

// HistorySourceBreaker wraps a HistorySource with a circuit breaker.
type HistorySourceBreaker struct {
	source HistorySource
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewHistorySourceBreaker wraps the given source.
func NewHistorySourceBreaker(source HistorySource) *HistorySourceBreaker {
	const name = "reservations"
	return &HistorySourceBreaker{
		source: source,
		cb:     newCollaboratorBreaker(name),
		name:   name,
	}
}

// ListUsers calls the wrapped source through the breaker.
func (b *HistorySourceBreaker) ListUsers(ctx context.Context) ([]UserID, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.source.ListUsers(ctx)
	})
	recordOutcome(b.name, err)
	if err != nil {
		return nil, err
	}
	return result.([]UserID), nil
}

// GetUserHistory calls the wrapped source through the breaker.
func (b *HistorySourceBreaker) GetUserHistory(ctx context.Context, userID UserID) ([]ReservationEvent, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.source.GetUserHistory(ctx, userID)
	})
	recordOutcome(b.name, err)
	if err != nil {
		return nil, err
	}
	return result.([]ReservationEvent), nil
}

// BookCatalogBreaker wraps a BookCatalog with a circuit breaker.
type BookCatalogBreaker struct {
	catalog BookCatalog
	cb      *gobreaker.CircuitBreaker[any]
	name    string
}

// NewBookCatalogBreaker wraps the given catalog.
func NewBookCatalogBreaker(catalog BookCatalog) *BookCatalogBreaker {
	const name = "repository"
	return &BookCatalogBreaker{
		catalog: catalog,
		cb:      newCollaboratorBreaker(name),
		name:    name,
	}
}

// ListBooks calls the wrapped catalog through the breaker.
func (b *BookCatalogBreaker) ListBooks(ctx context.Context) ([]Book, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.catalog.ListBooks(ctx)
	})
	recordOutcome(b.name, err)
	if err != nil {
		return nil, err
	}
	return result.([]Book), nil
}

// GetBook calls the wrapped catalog through the breaker. A missing book
// (nil, nil) is a success, not a breaker failure.
func (b *BookCatalogBreaker) GetBook(ctx context.Context, bookID BookID) (*Book, error) {
	result, err := b.cb.Execute(func() (any, error) {
		book, err := b.catalog.GetBook(ctx, bookID)
		if err != nil {
			return nil, err
		}
		return book, nil
	})
	recordOutcome(b.name, err)
	if err != nil {
		return nil, err
	}
	return result.(*Book), nil
}
