// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

// Package metrics defines the Prometheus collectors for the
// recommendations service. All collectors are registered with the default
// registry via promauto and exposed on /metrics.
package metrics
