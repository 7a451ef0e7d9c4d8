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

// authorPair is an unordered pair of author names, normalized so that
// A < B. No self-pairs are ever stored.
type authorPair struct {
	A, B string
}

// pairOf normalizes two distinct authors into an authorPair.
func pairOf(a, b string) authorPair {
	if a > b {
		a, b = b, a
	}
	return authorPair{A: a, B: b}
}

// userContribution is the snapshot of a user's history as it was last
// folded into the aggregates. Keeping the applied book and author sets
// allows exact subtraction when the user is resampled, even if the
// catalog's authorship mapping changed in between.
type userContribution struct {
	books   map[bookservice.BookID]struct{}
	authors []string // sorted, distinct
}

// CoefficientsStorage aggregates statistics over the full reservation
// history known to the engine. Counts reflect lifetime reservations:
// returning a book does not remove its history entry.
//
// Safe for concurrent use: one writer (the scheduler) and any number of
// readers. Every accessor takes the storage lock for the duration of the
// call only, so readers observe either the pre-fold or post-fold state of
// a user's contribution, never a partial fold.
type CoefficientsStorage struct {
	mu sync.RWMutex

	// popularity counts distinct users that ever reserved each book.
	popularity map[bookservice.BookID]int64

	// authorMatch counts distinct users that reserved books by both
	// authors of each pair.
	authorMatch map[authorPair]int64

	// bookToAuthor is the authorship mapping from the last catalog
	// refresh.
	bookToAuthor map[bookservice.BookID]string

	// authorToBooks groups the current catalog by author, membership
	// ordered by ascending book ID.
	authorToBooks map[string][]bookservice.BookID

	// applied holds each user's last folded contribution.
	applied map[bookservice.UserID]*userContribution

	logger zerolog.Logger
}

// NewCoefficientsStorage creates an empty storage.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCoefficientsStorage(logger zerolog.Logger) *CoefficientsStorage {
	return &CoefficientsStorage{
		popularity:    make(map[bookservice.BookID]int64),
		authorMatch:   make(map[authorPair]int64),
		bookToAuthor:  make(map[bookservice.BookID]string),
		authorToBooks: make(map[string][]bookservice.BookID),
		applied:       make(map[bookservice.UserID]*userContribution),
		logger:        logger.With().Str("component", "coefficients").Logger(),
	}
}

// RecordUserHistory folds a user's full reservation history into the
// aggregates, replacing any contribution previously applied for that
// user. Popularity increments once per distinct user-book pair; author
// match scores increment once per unordered pair of distinct authors in
// the user's distinct-book set. Re-applying an unchanged history is a
// no-op for the aggregate counts.
func (s *CoefficientsStorage) RecordUserHistory(userID bookservice.UserID, events []bookservice.ReservationEvent) {
	books := distinctBooks(events)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subtractLocked(userID)

	authorSet := make(map[string]struct{})
	for bookID := range books {
		s.popularity[bookID]++
		author, ok := s.bookToAuthor[bookID]
		if !ok {
			// Reservation references a book missing from the current
			// catalog; treat it as authorless rather than failing.
			s.logger.Warn().
				Int32("book_id", int32(bookID)).
				Int32("user_id", int32(userID)).
				Msg("book missing from catalog, counting popularity only")
			continue
		}
		authorSet[author] = struct{}{}
	}

	authors := make([]string, 0, len(authorSet))
	for author := range authorSet {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	for i := 0; i < len(authors); i++ {
		for j := i + 1; j < len(authors); j++ {
			s.authorMatch[pairOf(authors[i], authors[j])]++
		}
	}

	s.applied[userID] = &userContribution{books: books, authors: authors}
}

// RemoveUserHistory subtracts the user's previously applied contribution
// from the aggregates. A user that was never folded is a no-op.
func (s *CoefficientsStorage) RemoveUserHistory(userID bookservice.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subtractLocked(userID)
}

// subtractLocked removes the stored contribution of userID. Must be
// called with mu held for writing.
func (s *CoefficientsStorage) subtractLocked(userID bookservice.UserID) {
	contribution, ok := s.applied[userID]
	if !ok {
		return
	}

	for bookID := range contribution.books {
		s.popularity[bookID]--
		if s.popularity[bookID] <= 0 {
			delete(s.popularity, bookID)
		}
	}

	for i := 0; i < len(contribution.authors); i++ {
		for j := i + 1; j < len(contribution.authors); j++ {
			pair := pairOf(contribution.authors[i], contribution.authors[j])
			s.authorMatch[pair]--
			if s.authorMatch[pair] <= 0 {
				delete(s.authorMatch, pair)
			}
		}
	}

	delete(s.applied, userID)
}

// RefreshBookCatalog replaces the authorship mapping wholesale and
// rebuilds the author-to-books index from the new catalog. The swap is
// atomic with respect to readers. Popularity and author match counts are
// untouched; existing recommendation sets go stale until their user is
// next refreshed.
func (s *CoefficientsStorage) RefreshBookCatalog(books []bookservice.Book) {
	bookToAuthor := make(map[bookservice.BookID]string, len(books))
	authorToBooks := make(map[string][]bookservice.BookID)

	for _, book := range books {
		bookToAuthor[book.ID] = book.Author
		authorToBooks[book.Author] = append(authorToBooks[book.Author], book.ID)
	}
	for _, ids := range authorToBooks {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookToAuthor = bookToAuthor
	s.authorToBooks = authorToBooks
}

// AuthorOf returns the author of a book per the current catalog.
func (s *CoefficientsStorage) AuthorOf(bookID bookservice.BookID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	author, ok := s.bookToAuthor[bookID]
	return author, ok
}

// PopularityOf returns the lifetime reservation count of a book.
func (s *CoefficientsStorage) PopularityOf(bookID bookservice.BookID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.popularity[bookID]
}

// AuthorMatchScore returns the number of users that reserved books by
// both authors. Symmetric in its arguments; zero for self-pairs and
// unknown pairs.
func (s *CoefficientsStorage) AuthorMatchScore(a, b string) int64 {
	if a == b {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.authorMatch[pairOf(a, b)]
}

// MostPopularBooks returns all reserved books ordered by descending
// popularity, ties broken by ascending book ID.
func (s *CoefficientsStorage) MostPopularBooks() []bookservice.BookID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]bookservice.BookID, 0, len(s.popularity))
	for bookID := range s.popularity {
		books = append(books, bookID)
	}
	sort.Slice(books, func(i, j int) bool {
		pi, pj := s.popularity[books[i]], s.popularity[books[j]]
		if pi != pj {
			return pi > pj
		}
		return books[i] < books[j]
	})

	return books
}

// AuthorBooksByPopularity returns the author's catalog books ordered by
// descending popularity, ties broken by ascending book ID. Books never
// reserved rank last with popularity zero.
func (s *CoefficientsStorage) AuthorBooksByPopularity(author string) []bookservice.BookID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.authorToBooks[author]
	books := make([]bookservice.BookID, len(members))
	copy(books, members)

	// Membership is already ascending by ID, so a stable sort on
	// popularity alone preserves the tie-break.
	sort.SliceStable(books, func(i, j int) bool {
		return s.popularity[books[i]] > s.popularity[books[j]]
	})

	return books
}

// Authors returns all authors of the current catalog in ascending order.
func (s *CoefficientsStorage) Authors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make([]string, 0, len(s.authorToBooks))
	for author := range s.authorToBooks {
		authors = append(authors, author)
	}
	sort.Strings(authors)

	return authors
}

// CatalogSize returns the number of books and distinct authors in the
// current catalog.
func (s *CoefficientsStorage) CatalogSize() (books, authors int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookToAuthor), len(s.authorToBooks)
}
