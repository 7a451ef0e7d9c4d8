// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

// Package recommend implements the book recommendation engine.
//
// The engine is built from three pieces:
//
//   - CoefficientsStorage: aggregated statistics over all known
//     reservation history (book popularity, author co-reservation scores,
//     the author-to-books index). Rebuilt incrementally per user.
//   - RecommendationsEngine: the per-user materialized recommendation
//     sets, computed from the coefficients plus the user's own history.
//   - Scheduler: the tick-driven control loop that keeps both fresh under
//     a tiered refresh policy (new users every tick, a rotating sample of
//     known users periodically, the book catalog rarely).
//
// The scheduler is the sole writer of both structures; HTTP request
// handlers only read the already-materialized sets and never block on
// collaborator I/O. All state is in-memory and derived: a restart rebuilds
// everything from the collaborators' current state.
package recommend
