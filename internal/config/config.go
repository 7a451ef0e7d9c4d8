// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the complete service configuration, assembled from defaults,
// an optional YAML file and environment variables.
type Config struct {
	Scheduler    SchedulerConfig    `koanf:"scheduler"`
	Recommend    RecommendConfig    `koanf:"recommend"`
	Reservations CollaboratorConfig `koanf:"reservations"`
	Repository   CollaboratorConfig `koanf:"repository"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// SchedulerConfig controls the tiered refresh loop.
type SchedulerConfig struct {
	TickInterval        time.Duration `koanf:"tick_interval"`
	SampledRefreshEvery int           `koanf:"sampled_refresh_every"`
	CatalogRefreshEvery int           `koanf:"catalog_refresh_every"`
	SampleFraction      float64       `koanf:"sample_fraction"`
}

// RecommendConfig controls recommendation set sizing.
type RecommendConfig struct {
	NoOfRecommendations int `koanf:"no_of_recommendations"`
}

// CollaboratorConfig describes one upstream HTTP collaborator.
// RateLimitRPS bounds outbound requests per second; 0 disables the
// limiter.
type CollaboratorConfig struct {
	URL          string        `koanf:"url"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimitRPS int           `koanf:"rate_limit_rps"`
}

// ServerConfig controls the query-side HTTP server.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values the service cannot run
// with. It is called by Load after all layers are merged.
func (c *Config) Validate() error {
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive, got %s", c.Scheduler.TickInterval)
	}
	if c.Scheduler.SampledRefreshEvery <= 0 {
		return fmt.Errorf("scheduler.sampled_refresh_every must be positive, got %d", c.Scheduler.SampledRefreshEvery)
	}
	if c.Scheduler.CatalogRefreshEvery <= 0 {
		return fmt.Errorf("scheduler.catalog_refresh_every must be positive, got %d", c.Scheduler.CatalogRefreshEvery)
	}
	if c.Scheduler.SampleFraction <= 0 || c.Scheduler.SampleFraction > 1 {
		return fmt.Errorf("scheduler.sample_fraction must be in (0, 1], got %g", c.Scheduler.SampleFraction)
	}
	if c.Recommend.NoOfRecommendations <= 0 {
		return fmt.Errorf("recommend.no_of_recommendations must be positive, got %d", c.Recommend.NoOfRecommendations)
	}

	if err := validateCollaboratorURL("reservations.url", c.Reservations.URL); err != nil {
		return err
	}
	if err := validateCollaboratorURL("repository.url", c.Repository.URL); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests <= 0 {
			return fmt.Errorf("server.rate_limit_requests must be positive, got %d", c.Server.RateLimitRequests)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	if c.Reservations.RateLimitRPS < 0 || c.Repository.RateLimitRPS < 0 {
		return fmt.Errorf("collaborator rate_limit_rps must not be negative")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func validateCollaboratorURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", key)
	}
	return nil
}
