// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MarekSosnicki/bookservice/internal/bookservice"
	"github.com/MarekSosnicki/bookservice/internal/metrics"
)

// SchedulerConfig holds the tiered refresh policy parameters.
type SchedulerConfig struct {
	// TickInterval is the time between scheduler ticks. Default: 10s.
	TickInterval time.Duration

	// SampledRefreshEvery fires the sampled-refresh tier every N ticks.
	// Default: 20.
	SampledRefreshEvery int

	// CatalogRefreshEvery fires the catalog-refresh tier every N ticks.
	// Default: 200.
	CatalogRefreshEvery int

	// SampleFraction is the share of known users refreshed by the
	// sampled tier. Default: 0.10.
	SampleFraction float64
}

// DefaultSchedulerConfig returns the default refresh policy.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval:        10 * time.Second,
		SampledRefreshEvery: 20,
		CatalogRefreshEvery: 200,
		SampleFraction:      0.10,
	}
}

// withDefaults fills zero values with the defaults.
func (c SchedulerConfig) withDefaults() SchedulerConfig {
	def := DefaultSchedulerConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.SampledRefreshEvery <= 0 {
		c.SampledRefreshEvery = def.SampledRefreshEvery
	}
	if c.CatalogRefreshEvery <= 0 {
		c.CatalogRefreshEvery = def.CatalogRefreshEvery
	}
	if c.SampleFraction <= 0 || c.SampleFraction > 1 {
		c.SampleFraction = def.SampleFraction
	}
	return c
}

// TickReport summarizes what a single tick did. Used by tests and debug
// logging.
type TickReport struct {
	TickIndex int

	// NewUsers / NewUserFailures count the new-user tier.
	NewUsers        int
	NewUserFailures int

	// SampledFired / SampledFailures count users touched by the
	// sampled-refresh tier.
	SampledFired    int
	SampledFailures int

	// CatalogRefreshed reports whether the catalog tier (or the tick-0
	// bootstrap load) replaced the catalog.
	CatalogRefreshed bool
	CatalogFailed    bool
}

// Scheduler drives the tiered refresh of the coefficients storage and the
// recommendations engine. It is the sole writer of both. Ticks run
// strictly sequentially on the scheduler goroutine; a tick still running
// when the next interval elapses defers the next tick instead of
// overlapping it.
//
// Per tick, in order:
//  1. New-user tier (every tick): users known to the history source but
//     without a materialized set are folded and computed.
//  2. Sampled-refresh tier (every SampledRefreshEvery ticks, not tick 0):
//     a rotating slice of known users is re-pulled, their previous
//     contribution replaced, and their set recomputed.
//  3. Catalog-refresh tier (every CatalogRefreshEvery ticks, not tick 0):
//     the book catalog is re-pulled wholesale. Tick 0 instead performs a
//     bootstrap catalog load before the new-user tier so first-tick
//     recommendations have authorship data.
//
// Collaborator failures are logged and contained per user or per tier;
// the scheduler never stops on a transient fetch failure.
type Scheduler struct {
	cfg          SchedulerConfig
	coefficients *CoefficientsStorage
	engine       *RecommendationsEngine
	history      bookservice.HistorySource
	catalog      bookservice.BookCatalog
	logger       zerolog.Logger

	// tickIndex is the index of the next tick, counted from process
	// start. Only touched on the scheduler goroutine (or by tests driving
	// Tick directly).
	tickIndex int

	// sampleCursor rotates through the sorted known users so that the
	// sampled tier covers everyone over time.
	sampleCursor int

	name string
}

// NewScheduler creates a scheduler over the given structures and
// collaborators.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScheduler(
	cfg SchedulerConfig,
	coefficients *CoefficientsStorage,
	engine *RecommendationsEngine,
	history bookservice.HistorySource,
	catalog bookservice.BookCatalog,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:          cfg.withDefaults(),
		coefficients: coefficients,
		engine:       engine,
		history:      history,
		catalog:      catalog,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		name:         "recommendations-scheduler",
	}
}

// Serve implements the suture.Service interface. It runs tick 0
// immediately, then one tick per interval until the context is canceled.
// An in-flight tick is abandoned at its next collaborator call on
// shutdown; per-user updates already committed remain and are corrected
// by re-application on the next run.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("tick_interval", s.cfg.TickInterval).
		Int("sampled_refresh_every", s.cfg.SampledRefreshEvery).
		Int("catalog_refresh_every", s.cfg.CatalogRefreshEvery).
		Msg("scheduler starting")

	s.Tick(ctx)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Int("ticks", s.tickIndex).Msg("scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// String returns the service name for supervisor logging.
func (s *Scheduler) String() string {
	return s.name
}

// Tick runs a single tick with the current tick index and advances the
// index. Exported so tests can drive the tick progression directly
// without real time.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	start := time.Now()
	tick := s.tickIndex
	s.tickIndex++

	report := TickReport{TickIndex: tick}
	s.logger.Debug().Int("tick", tick).Msg("tick starting")

	// Bootstrap catalog load so tick 0 computes with authorship data.
	if tick == 0 {
		s.refreshCatalog(ctx, &report)
	}

	s.runNewUserTier(ctx, &report)

	if tick > 0 && tick%s.cfg.SampledRefreshEvery == 0 {
		s.runSampledTier(ctx, &report)
	}

	if tick > 0 && tick%s.cfg.CatalogRefreshEvery == 0 {
		s.refreshCatalog(ctx, &report)
	}

	metrics.SchedulerTicks.Inc()
	metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	metrics.KnownUsers.Set(float64(s.engine.Len()))

	s.logger.Info().
		Int("tick", tick).
		Int("new_users", report.NewUsers).
		Int("sampled", report.SampledFired).
		Bool("catalog_refreshed", report.CatalogRefreshed).
		Dur("duration", time.Since(start)).
		Msg("tick complete")

	return report
}

// runNewUserTier folds and computes every user present in the history
// source but absent from the engine. One user's failure does not abort
// the tier for the others.
func (s *Scheduler) runNewUserTier(ctx context.Context, report *TickReport) {
	users, err := s.history.ListUsers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("new-user tier: listing users failed, retrying next tick")
		metrics.TierFailures.WithLabelValues("new_user").Inc()
		return
	}

	for _, userID := range users {
		if s.engine.Has(userID) {
			continue
		}
		if s.refreshUser(ctx, userID, "new_user") {
			report.NewUsers++
		} else {
			report.NewUserFailures++
		}
	}
}

// runSampledTier re-pulls a rotating slice of known users so aggregate
// drift from changed histories is corrected over time.
func (s *Scheduler) runSampledTier(ctx context.Context, report *TickReport) {
	users := s.engine.KnownUsers()
	if len(users) == 0 {
		return
	}

	count := int(float64(len(users)) * s.cfg.SampleFraction)
	if count < 1 {
		count = 1
	}

	for i := 0; i < count; i++ {
		userID := users[(s.sampleCursor+i)%len(users)]
		if s.refreshUser(ctx, userID, "sampled") {
			report.SampledFired++
		} else {
			report.SampledFailures++
		}
	}
	s.sampleCursor = (s.sampleCursor + count) % len(users)
}

// refreshUser pulls the user's history, replaces their contribution in
// the coefficients and recomputes their recommendation set. Returns false
// on collaborator failure, leaving the user's previous state intact.
func (s *Scheduler) refreshUser(ctx context.Context, userID bookservice.UserID, tier string) bool {
	history, err := s.history.GetUserHistory(ctx, userID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int32("user_id", int32(userID)).
			Str("tier", tier).
			Msg("fetching user history failed, retrying next applicable tick")
		metrics.TierFailures.WithLabelValues(tier).Inc()
		return false
	}

	s.coefficients.RecordUserHistory(userID, history)
	set := s.engine.ComputeForUser(userID, history, s.coefficients)
	s.engine.Set(userID, set)

	metrics.TierUsersProcessed.WithLabelValues(tier).Inc()
	return true
}

// refreshCatalog re-pulls the full book catalog and swaps the authorship
// index. Existing recommendation sets stay as they are until their user
// is next touched; bounded staleness is accepted.
func (s *Scheduler) refreshCatalog(ctx context.Context, report *TickReport) {
	books, err := s.catalog.ListBooks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog refresh failed, retrying next applicable tick")
		metrics.TierFailures.WithLabelValues("catalog").Inc()
		report.CatalogFailed = true
		return
	}

	s.coefficients.RefreshBookCatalog(books)
	report.CatalogRefreshed = true

	bookCount, authorCount := s.coefficients.CatalogSize()
	metrics.CatalogRefreshes.Inc()
	metrics.CatalogBooks.Set(float64(bookCount))
	metrics.CatalogAuthors.Set(float64(authorCount))

	s.logger.Info().
		Int("books", bookCount).
		Int("authors", authorCount).
		Msg("catalog refreshed")
}
