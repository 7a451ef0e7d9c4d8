// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import "context"

// UserID identifies a user in the reservations service.
type UserID int32

// BookID identifies a book in the repository service.
type BookID int32

// Book is the catalog entry exposed by the repository service. Immutable
// from the recommendation engine's perspective; the catalog refresh tier
// replaces the whole set.
type Book struct {
	ID     BookID `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// ReservationEvent is a single entry of a user's reservation history,
// including entries that were already returned. UnreservedAt is nil while
// the reservation is still active.
type ReservationEvent struct {
	UserID       UserID `json:"user_id"`
	BookID       BookID `json:"book_id"`
	ReservedAt   int64  `json:"reserved_at"`
	UnreservedAt *int64 `json:"unreserved_at,omitempty"`
}

// HistorySource provides read-only access to users and their reservation
// history. Implemented by the networked reservations client and by the
// in-memory fixture.
type HistorySource interface {
	// ListUsers returns the IDs of all users known to the reservations
	// service.
	ListUsers(ctx context.Context) ([]UserID, error)

	// GetUserHistory returns the user's full reservation history, both
	// active and returned entries.
	GetUserHistory(ctx context.Context, userID UserID) ([]ReservationEvent, error)
}

// BookCatalog provides read-only access to book metadata. Implemented by
// the networked repository client and by the in-memory fixture.
type BookCatalog interface {
	// ListBooks returns the full book catalog.
	ListBooks(ctx context.Context) ([]Book, error)

	// GetBook returns a single book, or nil if the book does not exist.
	GetBook(ctx context.Context, bookID BookID) (*Book, error)
}
