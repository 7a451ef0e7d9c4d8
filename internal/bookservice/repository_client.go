// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package bookservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/MarekSosnicki/bookservice/internal/ratelimit"
)

// Ensure RepositoryClient implements BookCatalog
var _ BookCatalog = (*RepositoryClient)(nil)

// RepositoryClient is the HTTP client for the book repository service.
//
// Endpoints:
//
//	GET /api/books           -> []Book
//	GET /api/book/{book_id}  -> Book (404 when absent)
type RepositoryClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewRepositoryClient creates a book repository client.
// A zero timeout defaults to 30s.
func NewRepositoryClient(baseURL string, timeout time.Duration) *RepositoryClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RepositoryClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetRateLimit bounds outbound requests to requestsPerSecond. Zero or
// negative disables the limiter.
func (c *RepositoryClient) SetRateLimit(requestsPerSecond int) {
	if requestsPerSecond <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = ratelimit.New("repository", requestsPerSecond)
}

// ListBooks returns the full book catalog. The catalog refresh tier
// prefers this bulk endpoint over per-book lookups.
func (c *RepositoryClient) ListBooks(ctx context.Context) ([]Book, error) {
	resp, err := c.doRequest(ctx, "/api/books")
	if err != nil {
		return nil, fmt.Errorf("repository list books request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("repository list books", resp)
	}

	var books []Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode book list: %w", err)
	}

	return books, nil
}

// GetBook returns a single book, or nil if the repository does not know
// the given ID.
func (c *RepositoryClient) GetBook(ctx context.Context, bookID BookID) (*Book, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("/api/book/%d", bookID))
	if err != nil {
		return nil, fmt.Errorf("repository get book request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("repository get book", resp)
	}

	var book Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode book %d: %w", bookID, err)
	}
	book.ID = bookID

	return &book, nil
}

func (c *RepositoryClient) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
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
