// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newMockedReservationsClient(t *testing.T) *ReservationsClient {
	t.Helper()
	client := NewReservationsClient("http://reservations.test", time.Second)
	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func newMockedRepositoryClient(t *testing.T) *RepositoryClient {
	t.Helper()
	client := NewRepositoryClient("http://repository.test", time.Second)
	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestReservationsClient_ListUsers(t *testing.T) {
	client := newMockedReservationsClient(t)

	httpmock.RegisterResponder("GET", "http://reservations.test/api/users",
		httpmock.NewStringResponder(200, `[1, 2, 7]`))

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	want := []UserID{1, 2, 7}
	if len(users) != len(want) {
		t.Fatalf("ListUsers() returned %d users, want %d", len(users), len(want))
	}
	for i, id := range want {
		if users[i] != id {
			t.Errorf("users[%d] = %d, want %d", i, users[i], id)
		}
	}
}

func TestReservationsClient_ListUsersServerError(t *testing.T) {
	client := newMockedReservationsClient(t)

	httpmock.RegisterResponder("GET", "http://reservations.test/api/users",
		httpmock.NewStringResponder(500, `"boom"`))

	if _, err := client.ListUsers(context.Background()); err == nil {
		t.Fatal("ListUsers() expected error on 500 response")
	}
}

func TestReservationsClient_GetUserHistory(t *testing.T) {
	client := newMockedReservationsClient(t)

	httpmock.RegisterResponder("GET", "http://reservations.test/api/user/3/history",
		httpmock.NewStringResponder(200,
			`[{"book_id": 10, "reserved_at": 100, "unreserved_at": 200}, {"book_id": 11, "reserved_at": 300}]`))

	history, err := client.GetUserHistory(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetUserHistory() error = %v", err)
	}

	if len(history) != 2 {
		t.Fatalf("GetUserHistory() returned %d events, want 2", len(history))
	}
	if history[0].UserID != 3 || history[1].UserID != 3 {
		t.Error("expected UserID to be filled in from the request")
	}
	if history[0].BookID != 10 || history[0].UnreservedAt == nil || *history[0].UnreservedAt != 200 {
		t.Errorf("unexpected first event: %+v", history[0])
	}
	if history[1].UnreservedAt != nil {
		t.Errorf("expected active reservation to have nil UnreservedAt, got %v", *history[1].UnreservedAt)
	}
}

func TestRepositoryClient_ListBooks(t *testing.T) {
	client := newMockedRepositoryClient(t)

	httpmock.RegisterResponder("GET", "http://repository.test/api/books",
		httpmock.NewStringResponder(200,
			`[{"book_id": 1, "title": "Solaris", "author": "Lem"}, {"book_id": 2, "title": "Dune", "author": "Herbert"}]`))

	books, err := client.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}

	if len(books) != 2 {
		t.Fatalf("ListBooks() returned %d books, want 2", len(books))
	}
	if books[0].ID != 1 || books[0].Author != "Lem" {
		t.Errorf("unexpected first book: %+v", books[0])
	}
}

func TestRepositoryClient_GetBook(t *testing.T) {
	client := newMockedRepositoryClient(t)

	httpmock.RegisterResponder("GET", "http://repository.test/api/book/5",
		httpmock.NewStringResponder(200, `{"title": "Solaris", "author": "Lem"}`))
	httpmock.RegisterResponder("GET", "http://repository.test/api/book/6",
		httpmock.NewStringResponder(404, ""))

	book, err := client.GetBook(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetBook(5) error = %v", err)
	}
	if book == nil || book.ID != 5 || book.Title != "Solaris" {
		t.Errorf("GetBook(5) = %+v, want Solaris with ID filled in", book)
	}

	missing, err := client.GetBook(context.Background(), 6)
	if err != nil {
		t.Fatalf("GetBook(6) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetBook(6) = %+v, want nil for 404", missing)
	}
}

func TestInMemoryHistorySource(t *testing.T) {
	src := NewInMemoryHistorySource()
	ctx := context.Background()

	src.AddUser(2)
	src.AddReservation(1, ReservationEvent{BookID: 10, ReservedAt: 100})
	src.AddReservation(1, ReservationEvent{BookID: 11, ReservedAt: 200})

	users, err := src.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0] != 1 || users[1] != 2 {
		t.Errorf("ListUsers() = %v, want [1 2]", users)
	}

	history, err := src.GetUserHistory(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("GetUserHistory() returned %d events, want 2", len(history))
	}
	if history[0].UserID != 1 {
		t.Error("expected AddReservation to stamp the user ID")
	}

	empty, err := src.GetUserHistory(ctx, 99)
	if err != nil {
		t.Fatalf("GetUserHistory(99) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty history for unknown user, got %v", empty)
	}
}

func TestInMemoryBookCatalog(t *testing.T) {
	catalog := NewInMemoryBookCatalog()
	ctx := context.Background()

	catalog.PutBook(Book{ID: 2, Title: "Dune", Author: "Herbert"})
	catalog.PutBook(Book{ID: 1, Title: "Solaris", Author: "Lem"})

	books, err := catalog.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 2 || books[0].ID != 1 || books[1].ID != 2 {
		t.Errorf("ListBooks() = %v, want ascending IDs [1 2]", books)
	}

	book, err := catalog.GetBook(ctx, 2)
	if err != nil {
		t.Fatalf("GetBook(2) error = %v", err)
	}
	if book == nil || book.Title != "Dune" {
		t.Errorf("GetBook(2) = %+v, want Dune", book)
	}

	catalog.RemoveBook(2)
	gone, err := catalog.GetBook(ctx, 2)
	if err != nil {
		t.Fatalf("GetBook(2) after remove error = %v", err)
	}
	if gone != nil {
		t.Errorf("GetBook(2) after remove = %+v, want nil", gone)
	}
}
