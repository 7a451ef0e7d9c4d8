// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validBase() *Config {
	cfg := defaultConfig()
	cfg.Reservations.URL = "http://reservations:8081"
	cfg.Repository.URL = "http://repository:8082"
	return cfg
}

func TestLoad_DefaultsWithRequiredEnv(t *testing.T) {
	t.Setenv("RESERVATIONS_URL", "http://reservations:8081")
	t.Setenv("REPOSITORY_URL", "http://repository:8082")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scheduler.TickInterval != 10*time.Second {
		t.Errorf("TickInterval = %s, want 10s", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.SampledRefreshEvery != 20 {
		t.Errorf("SampledRefreshEvery = %d, want 20", cfg.Scheduler.SampledRefreshEvery)
	}
	if cfg.Scheduler.CatalogRefreshEvery != 200 {
		t.Errorf("CatalogRefreshEvery = %d, want 200", cfg.Scheduler.CatalogRefreshEvery)
	}
	if cfg.Scheduler.SampleFraction != 0.10 {
		t.Errorf("SampleFraction = %g, want 0.10", cfg.Scheduler.SampleFraction)
	}
	if cfg.Recommend.NoOfRecommendations != 5 {
		t.Errorf("NoOfRecommendations = %d, want 5", cfg.Recommend.NoOfRecommendations)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %s, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoad_MissingCollaboratorURL(t *testing.T) {
	t.Setenv("RESERVATIONS_URL", "")
	t.Setenv("REPOSITORY_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded without collaborator URLs")
	}
	if !strings.Contains(err.Error(), "reservations.url") {
		t.Errorf("error %q does not mention reservations.url", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RESERVATIONS_URL", "http://reservations:8081")
	t.Setenv("REPOSITORY_URL", "http://repository:8082")
	t.Setenv("TICK_INTERVAL", "2s")
	t.Setenv("SAMPLED_REFRESH_EVERY", "5")
	t.Setenv("NO_OF_RECOMMENDATIONS", "8")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scheduler.TickInterval != 2*time.Second {
		t.Errorf("TickInterval = %s, want 2s", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.SampledRefreshEvery != 5 {
		t.Errorf("SampledRefreshEvery = %d, want 5", cfg.Scheduler.SampledRefreshEvery)
	}
	if cfg.Recommend.NoOfRecommendations != 8 {
		t.Errorf("NoOfRecommendations = %d, want 8", cfg.Recommend.NoOfRecommendations)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoad_YAMLFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scheduler:
  tick_interval: 5s
  catalog_refresh_every: 100
reservations:
  url: http://file-reservations:8081
repository:
  url: http://file-repository:8082
server:
  port: 7070
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	// Env beats file.
	t.Setenv("HTTP_PORT", "7171")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scheduler.TickInterval != 5*time.Second {
		t.Errorf("TickInterval = %s, want 5s from file", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.CatalogRefreshEvery != 100 {
		t.Errorf("CatalogRefreshEvery = %d, want 100 from file", cfg.Scheduler.CatalogRefreshEvery)
	}
	if cfg.Reservations.URL != "http://file-reservations:8081" {
		t.Errorf("Reservations.URL = %s, want file value", cfg.Reservations.URL)
	}
	if cfg.Server.Port != 7171 {
		t.Errorf("Port = %d, want env override 7171", cfg.Server.Port)
	}
	// Defaults survive underneath both layers.
	if cfg.Scheduler.SampledRefreshEvery != 20 {
		t.Errorf("SampledRefreshEvery = %d, want default 20", cfg.Scheduler.SampledRefreshEvery)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Scheduler.TickInterval = 0 },
			wantErr: "scheduler.tick_interval",
		},
		{
			name:    "negative sampled refresh",
			mutate:  func(c *Config) { c.Scheduler.SampledRefreshEvery = -1 },
			wantErr: "scheduler.sampled_refresh_every",
		},
		{
			name:    "sample fraction above one",
			mutate:  func(c *Config) { c.Scheduler.SampleFraction = 1.5 },
			wantErr: "scheduler.sample_fraction",
		},
		{
			name:    "zero recommendations",
			mutate:  func(c *Config) { c.Recommend.NoOfRecommendations = 0 },
			wantErr: "recommend.no_of_recommendations",
		},
		{
			name:    "bad collaborator scheme",
			mutate:  func(c *Config) { c.Repository.URL = "ftp://repository:21" },
			wantErr: "repository.url",
		},
		{
			name:    "rate limit enabled without requests",
			mutate:  func(c *Config) { c.Server.RateLimitRequests = 0 },
			wantErr: "server.rate_limit_requests",
		},
		{
			name: "rate limit disabled skips requests check",
			mutate: func(c *Config) {
				c.Server.RateLimitDisabled = true
				c.Server.RateLimitRequests = 0
			},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
