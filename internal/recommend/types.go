// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package recommend

import (
	"github.com/MarekSosnicki/bookservice/internal/bookservice"
)

// DefaultNoOfRecommendations caps each recommendation category unless
// configured otherwise.
const DefaultNoOfRecommendations = 5

// RecommendationSet holds the three per-user recommendation lists. Each
// list is ordered, capped at the configured number of recommendations and
// excludes every book the user has ever reserved. The lists are
// independent; a book may appear in more than one of them.
type RecommendationSet struct {
	// MostPopular lists globally most reserved books, by descending
	// lifetime reservation count.
	MostPopular []bookservice.BookID `json:"most_popular"`

	// AuthorMatch lists unread books by authors the user has already
	// reserved, by descending popularity.
	AuthorMatch []bookservice.BookID `json:"author_match"`

	// NewAuthorMatch lists books by authors the user has never reserved,
	// ranked by how often those authors co-occur with the user's authors
	// in other users' histories.
	NewAuthorMatch []bookservice.BookID `json:"new_author_match"`
}

// EmptyRecommendationSet returns a set with three empty, non-nil lists.
// Returned for users the scheduler has not seen yet; serializes as empty
// JSON arrays rather than nulls.
func EmptyRecommendationSet() RecommendationSet {
	return RecommendationSet{
		MostPopular:    []bookservice.BookID{},
		AuthorMatch:    []bookservice.BookID{},
		NewAuthorMatch: []bookservice.BookID{},
	}
}

// distinctBooks returns the set of distinct book IDs in a reservation
// history. Repeated reserve/unreserve cycles of the same book collapse to
// a single entry.
func distinctBooks(history []bookservice.ReservationEvent) map[bookservice.BookID]struct{} {
	books := make(map[bookservice.BookID]struct{}, len(history))
	for _, event := range history {
		books[event.BookID] = struct{}{}
	}
	return books
}
