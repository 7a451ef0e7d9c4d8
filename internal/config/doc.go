// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

// Package config loads and validates the service configuration from
// layered sources: built-in defaults, an optional YAML file and
// environment variables, with environment variables taking precedence.
package config
