// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/MarekSosnicki/bookservice/internal/ratelimit"
)

// Ensure ReservationsClient implements HistorySource
var _ HistorySource = (*ReservationsClient)(nil)

// ReservationsClient is the HTTP client for the reservations service.
//
// Endpoints:
//
//	GET /api/users                   -> []UserID
//	GET /api/user/{user_id}/history  -> []ReservationEvent
type ReservationsClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewReservationsClient creates a reservations service client.
// A zero timeout defaults to 30s.
func NewReservationsClient(baseURL string, timeout time.Duration) *ReservationsClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ReservationsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetRateLimit bounds outbound requests to requestsPerSecond. Zero or
// negative disables the limiter.
func (c *ReservationsClient) SetRateLimit(requestsPerSecond int) {
	if requestsPerSecond <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = ratelimit.New("reservations", requestsPerSecond)
}

// ListUsers returns the IDs of all registered users.
func (c *ReservationsClient) ListUsers(ctx context.Context) ([]UserID, error) {
	resp, err := c.doRequest(ctx, "/api/users")
	if err != nil {
		return nil, fmt.Errorf("reservations list users request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("reservations list users", resp)
	}

	var users []UserID
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode user list: %w", err)
	}

	return users, nil
}

// GetUserHistory returns the user's full reservation history. Entries with
// a nil UnreservedAt are still active.
func (c *ReservationsClient) GetUserHistory(ctx context.Context, userID UserID) ([]ReservationEvent, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("/api/user/%d/history", userID))
	if err != nil {
		return nil, fmt.Errorf("reservations history request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("reservations history", resp)
	}

	var history []ReservationEvent
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to decode history for user %d: %w", userID, err)
	}

	for i := range history {
		history[i].UserID = userID
	}

	return history, nil
}

func (c *ReservationsClient) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// statusError builds an error from a non-2xx response, including a capped
// amount of the body for diagnostics.
func statusError(operation string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("%s returned status %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, string(body))
}
