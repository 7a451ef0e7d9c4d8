// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package recommend

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MarekSosnicki/bookservice/internal/bookservice"
)

// RecommendationsEngine holds the materialized per-user recommendation
// sets. The scheduler is the sole writer; request handlers read through
// GetRecommendations. Each user's entry is replaced atomically, so a
// reader observes either the previous or the new set, never a mix.
type RecommendationsEngine struct {
	mu              sync.RWMutex
	recommendations map[bookservice.UserID]RecommendationSet

	limit  int
	logger zerolog.Logger
}

// NewRecommendationsEngine creates an empty engine. A non-positive limit
// falls back to DefaultNoOfRecommendations.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendationsEngine(limit int, logger zerolog.Logger) *RecommendationsEngine {
	if limit <= 0 {
		limit = DefaultNoOfRecommendations
	}

	return &RecommendationsEngine{
		recommendations: make(map[bookservice.UserID]RecommendationSet),
		limit:           limit,
		logger:          logger.With().Str("component", "engine").Logger(),
	}
}

// GetRecommendations returns the user's current materialized set. Users
// never seen by the scheduler get three empty lists, not an error. Never
// blocks on recomputation or collaborator I/O.
func (e *RecommendationsEngine) GetRecommendations(userID bookservice.UserID) RecommendationSet {
	e.mu.RLock()
	set, ok := e.recommendations[userID]
	e.mu.RUnlock()

	if !ok {
		return EmptyRecommendationSet()
	}
	return set
}

// Set atomically replaces the user's recommendation set.
func (e *RecommendationsEngine) Set(userID bookservice.UserID, set RecommendationSet) {
	e.mu.Lock()
	e.recommendations[userID] = set
	e.mu.Unlock()
}

// Has reports whether the user already has a materialized set. Users
// known to the history source but absent here are "new" from the
// scheduler's perspective.
func (e *RecommendationsEngine) Has(userID bookservice.UserID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.recommendations[userID]
	return ok
}

// KnownUsers returns all users with a materialized set, ascending.
func (e *RecommendationsEngine) KnownUsers() []bookservice.UserID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	users := make([]bookservice.UserID, 0, len(e.recommendations))
	for userID := range e.recommendations {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	return users
}

// Len returns the number of users with a materialized set.
func (e *RecommendationsEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.recommendations)
}

// ComputeForUser builds a fresh recommendation set for the user from the
// coefficients and the user's own history. Pure with respect to engine
// state: computing twice with unchanged inputs yields identical sets.
func (e *RecommendationsEngine) ComputeForUser(
	userID bookservice.UserID,
	history []bookservice.ReservationEvent,
	coefficients *CoefficientsStorage,
) RecommendationSet {
	reservedBooks := distinctBooks(history)

	reservedAuthors := make(map[string]struct{})
	for bookID := range reservedBooks {
		if author, ok := coefficients.AuthorOf(bookID); ok {
			reservedAuthors[author] = struct{}{}
		}
	}

	set := RecommendationSet{
		MostPopular:    e.mostPopular(reservedBooks, coefficients),
		AuthorMatch:    e.authorMatch(reservedBooks, reservedAuthors, coefficients),
		NewAuthorMatch: e.newAuthorMatch(reservedBooks, reservedAuthors, coefficients),
	}

	e.logger.Debug().
		Int32("user_id", int32(userID)).
		Int("most_popular", len(set.MostPopular)).
		Int("author_match", len(set.AuthorMatch)).
		Int("new_author_match", len(set.NewAuthorMatch)).
		Msg("computed recommendations")

	return set
}

// mostPopular takes globally most reserved books, skipping the user's own.
func (e *RecommendationsEngine) mostPopular(
	reservedBooks map[bookservice.BookID]struct{},
	coefficients *CoefficientsStorage,
) []bookservice.BookID {
	result := make([]bookservice.BookID, 0, e.limit)
	for _, bookID := range coefficients.MostPopularBooks() {
		if _, reserved := reservedBooks[bookID]; reserved {
			continue
		}
		result = append(result, bookID)
		if len(result) == e.limit {
			break
		}
	}

	return result
}

// authorMatch merges unreserved candidates from every author the user has
// already reserved, ordered by descending popularity with ascending book
// ID as tie-break.
func (e *RecommendationsEngine) authorMatch(
	reservedBooks map[bookservice.BookID]struct{},
	reservedAuthors map[string]struct{},
	coefficients *CoefficientsStorage,
) []bookservice.BookID {
	var candidates []bookservice.BookID
	for author := range reservedAuthors {
		for _, bookID := range coefficients.AuthorBooksByPopularity(author) {
			if _, reserved := reservedBooks[bookID]; reserved {
				continue
			}
			candidates = append(candidates, bookID)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		pi := coefficients.PopularityOf(candidates[i])
		pj := coefficients.PopularityOf(candidates[j])
		if pi != pj {
			return pi > pj
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}
	if candidates == nil {
		candidates = []bookservice.BookID{}
	}

	return candidates
}

// newAuthorMatch ranks authors the user has never reserved by the sum of
// their match scores with the user's authors, then takes each ranked
// author's most popular unreserved book until the limit is reached.
func (e *RecommendationsEngine) newAuthorMatch(
	reservedBooks map[bookservice.BookID]struct{},
	reservedAuthors map[string]struct{},
	coefficients *CoefficientsStorage,
) []bookservice.BookID {
	type scoredAuthor struct {
		author string
		score  int64
	}

	var candidates []scoredAuthor
	for _, author := range coefficients.Authors() {
		if _, reserved := reservedAuthors[author]; reserved {
			continue
		}
		var score int64
		for reserved := range reservedAuthors {
			score += coefficients.AuthorMatchScore(author, reserved)
		}
		candidates = append(candidates, scoredAuthor{author: author, score: score})
	}

	// Authors() is ascending, so a stable sort on score alone keeps the
	// ascending-author tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	result := make([]bookservice.BookID, 0, e.limit)
	for _, candidate := range candidates {
		for _, bookID := range coefficients.AuthorBooksByPopularity(candidate.author) {
			if _, reserved := reservedBooks[bookID]; reserved {
				continue
			}
			result = append(result, bookID)
			break
		}
		if len(result) == e.limit {
			break
		}
	}

	return result
}
