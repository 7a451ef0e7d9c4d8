// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import (
	"context"
	"sort"
	"sync"
)

// Ensure in-memory fixtures satisfy the collaborator interfaces
var (
	_ HistorySource = (*InMemoryHistorySource)(nil)
	_ BookCatalog   = (*InMemoryBookCatalog)(nil)
)

// InMemoryHistorySource is a process-local HistorySource. Used by tests
// and by standalone runs without a reservations service. Safe for
// concurrent use.
type InMemoryHistorySource struct {
	mu      sync.RWMutex
	history map[UserID][]ReservationEvent
}

// NewInMemoryHistorySource creates an empty in-memory history source.
func NewInMemoryHistorySource() *InMemoryHistorySource {
	return &InMemoryHistorySource{
		history: make(map[UserID][]ReservationEvent),
	}
}

// AddUser registers a user with no history. A user already present keeps
// their history.
func (s *InMemoryHistorySource) AddUser(userID UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.history[userID]; !ok {
		s.history[userID] = nil
	}
}

// AddReservation appends a reservation event to the user's history,
// registering the user if needed.
func (s *InMemoryHistorySource) AddReservation(userID UserID, event ReservationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.UserID = userID
	s.history[userID] = append(s.history[userID], event)
}

// SetHistory replaces the user's full history.
func (s *InMemoryHistorySource) SetHistory(userID UserID, events []ReservationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]ReservationEvent, len(events))
	copy(copied, events)
	for i := range copied {
		copied[i].UserID = userID
	}
	s.history[userID] = copied
}

// ListUsers returns all registered user IDs in ascending order.
func (s *InMemoryHistorySource) ListUsers(_ context.Context) ([]UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]UserID, 0, len(s.history))
	for userID := range s.history {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	return users, nil
}

// GetUserHistory returns a copy of the user's history. An unknown user
// has an empty history.
func (s *InMemoryHistorySource) GetUserHistory(_ context.Context, userID UserID) ([]ReservationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.history[userID]
	copied := make([]ReservationEvent, len(events))
	copy(copied, events)

	return copied, nil
}

// InMemoryBookCatalog is a process-local BookCatalog. Safe for concurrent
// use.
type InMemoryBookCatalog struct {
	mu    sync.RWMutex
	books map[BookID]Book
}

// NewInMemoryBookCatalog creates an empty in-memory catalog.
func NewInMemoryBookCatalog() *InMemoryBookCatalog {
	return &InMemoryBookCatalog{
		books: make(map[BookID]Book),
	}
}

// PutBook inserts or replaces a book.
func (c *InMemoryBookCatalog) PutBook(book Book) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.books[book.ID] = book
}

// RemoveBook deletes a book from the catalog.
func (c *InMemoryBookCatalog) RemoveBook(bookID BookID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.books, bookID)
}

// ListBooks returns all books ordered by ascending ID.
func (c *InMemoryBookCatalog) ListBooks(_ context.Context) ([]Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]Book, 0, len(c.books))
	for _, book := range c.books {
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	return books, nil
}

// GetBook returns the book with the given ID, or nil if absent.
func (c *InMemoryBookCatalog) GetBook(_ context.Context, bookID BookID) (*Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	book, ok := c.books[bookID]
	if !ok {
		return nil, nil
	}

	return &book, nil
}
