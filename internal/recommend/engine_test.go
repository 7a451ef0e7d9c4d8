// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package recommend

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/MarekSosnicki/bookservice/internal/bookservice"
)

func newTestEngine(limit int) *RecommendationsEngine {
	return NewRecommendationsEngine(limit, zerolog.Nop())
}

func TestGetRecommendations_UnknownUserIsEmpty(t *testing.T) {
	e := newTestEngine(5)

	set := e.GetRecommendations(123)

	if set.MostPopular == nil || set.AuthorMatch == nil || set.NewAuthorMatch == nil {
		t.Fatal("expected non-nil empty lists for unknown user")
	}
	if len(set.MostPopular) != 0 || len(set.AuthorMatch) != 0 || len(set.NewAuthorMatch) != 0 {
		t.Errorf("expected three empty lists, got %+v", set)
	}
}

func TestEngine_SetHasKnownUsers(t *testing.T) {
	e := newTestEngine(5)

	if e.Has(1) {
		t.Error("Has(1) = true before any Set")
	}

	e.Set(2, EmptyRecommendationSet())
	e.Set(1, EmptyRecommendationSet())

	if !e.Has(1) || !e.Has(2) {
		t.Error("expected both users to be known after Set")
	}
	if got := e.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := e.KnownUsers(); !reflect.DeepEqual(got, []bookservice.UserID{1, 2}) {
		t.Errorf("KnownUsers() = %v, want [1 2]", got)
	}
}

func TestComputeForUser_ExcludesReservedEverywhere(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
		bookservice.Book{ID: 3, Title: "C", Author: "Y"},
		bookservice.Book{ID: 4, Title: "D", Author: "Y"},
	)
	e := newTestEngine(5)

	s.RecordUserHistory(1, events(1, 3))
	s.RecordUserHistory(2, events(1, 2, 3, 4))

	history := events(1, 3)
	set := e.ComputeForUser(1, history, s)

	reserved := map[bookservice.BookID]bool{1: true, 3: true}
	for _, list := range [][]bookservice.BookID{set.MostPopular, set.AuthorMatch, set.NewAuthorMatch} {
		for _, id := range list {
			if reserved[id] {
				t.Errorf("recommendation list contains reserved book %d: %+v", id, set)
			}
		}
	}
}

func TestComputeForUser_MostPopularOrderAndCap(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
		bookservice.Book{ID: 3, Title: "C", Author: "Y"},
		bookservice.Book{ID: 4, Title: "D", Author: "Y"},
		bookservice.Book{ID: 5, Title: "E", Author: "Z"},
	)
	e := newTestEngine(2)

	s.RecordUserHistory(1, events(2))
	s.RecordUserHistory(2, events(2, 3))
	s.RecordUserHistory(3, events(2, 3, 4))
	s.RecordUserHistory(4, events(5))

	// User 9 has no history: most popular is 2 (3 users), 3 (2 users).
	set := e.ComputeForUser(9, nil, s)

	want := []bookservice.BookID{2, 3}
	if !reflect.DeepEqual(set.MostPopular, want) {
		t.Errorf("MostPopular = %v, want %v", set.MostPopular, want)
	}
}

func TestComputeForUser_Idempotent(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
		bookservice.Book{ID: 3, Title: "C", Author: "Y"},
	)
	e := newTestEngine(5)

	s.RecordUserHistory(1, events(1))
	s.RecordUserHistory(2, events(1, 3))

	history := events(1)
	first := e.ComputeForUser(1, history, s)
	second := e.ComputeForUser(1, history, s)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation with unchanged history differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeForUser_AuthorMatchMergesAcrossAuthors(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
		bookservice.Book{ID: 3, Title: "C", Author: "Y"},
		bookservice.Book{ID: 4, Title: "D", Author: "Y"},
		bookservice.Book{ID: 5, Title: "E", Author: "Z"},
	)
	e := newTestEngine(5)

	// Popularity: book 4 -> 2, book 2 -> 1.
	s.RecordUserHistory(10, events(4, 2))
	s.RecordUserHistory(11, events(4))

	// User reserved one X book and one Y book; candidates are the
	// remaining unreserved X and Y books, merged by popularity.
	history := events(1, 3)
	set := e.ComputeForUser(1, history, s)

	want := []bookservice.BookID{4, 2}
	if !reflect.DeepEqual(set.AuthorMatch, want) {
		t.Errorf("AuthorMatch = %v, want %v", set.AuthorMatch, want)
	}
}

func TestComputeForUser_NewAuthorMatchScenario(t *testing.T) {
	// Users 1 and 2 both reserve A (author X) and B (author Y); user 3
	// reserves only C (author X).
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "Y"},
		bookservice.Book{ID: 3, Title: "C", Author: "X"},
		bookservice.Book{ID: 4, Title: "E", Author: "Z"},
	)
	e := newTestEngine(5)

	s.RecordUserHistory(1, events(1, 2))
	s.RecordUserHistory(2, events(1, 2))
	s.RecordUserHistory(3, events(3))

	if got := s.AuthorMatchScore("X", "Y"); got != 2 {
		t.Fatalf("AuthorMatchScore(X, Y) = %d, want 2", got)
	}

	set := e.ComputeForUser(3, events(3), s)

	// Y has the highest match score with X among non-X authors, so Y's
	// most popular book (2) must come first.
	if len(set.NewAuthorMatch) == 0 {
		t.Fatal("NewAuthorMatch is empty")
	}
	if set.NewAuthorMatch[0] != 2 {
		t.Errorf("NewAuthorMatch[0] = %d, want 2 (Y's most popular book)", set.NewAuthorMatch[0])
	}
}

func TestComputeForUser_NewAuthorMatchExcludesReservedAuthors(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
		bookservice.Book{ID: 3, Title: "C", Author: "Y"},
	)
	e := newTestEngine(5)

	s.RecordUserHistory(1, events(1, 3))

	set := e.ComputeForUser(1, events(1), s)

	// X is a reserved author: no X book may appear via new_author_match.
	for _, id := range set.NewAuthorMatch {
		if author, _ := s.AuthorOf(id); author == "X" {
			t.Errorf("NewAuthorMatch contains book %d by reserved author X", id)
		}
	}
}

func TestComputeForUser_CategoriesMayOverlap(t *testing.T) {
	s := newTestStorage(
		bookservice.Book{ID: 1, Title: "A", Author: "X"},
		bookservice.Book{ID: 2, Title: "B", Author: "X"},
	)
	e := newTestEngine(5)

	s.RecordUserHistory(1, events(1))
	s.RecordUserHistory(2, events(2))

	// User 1 reserved book 1 by X; book 2 is both globally popular and an
	// author match. No cross-deduplication between categories.
	set := e.ComputeForUser(1, events(1), s)

	if len(set.MostPopular) != 1 || set.MostPopular[0] != 2 {
		t.Errorf("MostPopular = %v, want [2]", set.MostPopular)
	}
	if len(set.AuthorMatch) != 1 || set.AuthorMatch[0] != 2 {
		t.Errorf("AuthorMatch = %v, want [2]", set.AuthorMatch)
	}
}

func TestComputeForUser_EmptyCoefficients(t *testing.T) {
	s := newTestStorage()
	e := newTestEngine(5)

	set := e.ComputeForUser(1, nil, s)

	if len(set.MostPopular) != 0 || len(set.AuthorMatch) != 0 || len(set.NewAuthorMatch) != 0 {
		t.Errorf("expected empty set from empty coefficients, got %+v", set)
	}
}
