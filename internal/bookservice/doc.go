// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

// Package bookservice contains the clients for the two external
// collaborators the recommendation engine reads from: the reservations
// service (users and reservation history) and the book repository service
// (book metadata).
//
// Each collaborator is modeled as a small read-only interface
// (HistorySource, BookCatalog) with two implementations: a networked HTTP
// client and an in-memory fixture. The networked clients can additionally
// be wrapped with a circuit breaker to shed load during collaborator
// outages.
package bookservice
