// Package lookup is the adapter for the exercise suggestion service.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trakr-app/trakr/internal/models"
)

// Searcher is the narrow contract the suggester depends on. *Client satisfies
// it; tests substitute scripted implementations.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Suggestion, error)
}

// Client queries the exercise lookup service over HTTP.
// Non-2xx responses and malformed bodies surface as errors; the suggester
// recovers them locally so a broken lookup service never blocks manual entry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

var _ Searcher = (*Client)(nil)

// NewClient creates a lookup client targeting the given base URL.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Search fetches suggestions matching the query. The query is URL-encoded
// into the name_like parameter. Every failure surfaces as an error, transport
// or service level, so callers can distinguish "no matches" from "broken".
func (c *Client) Search(ctx context.Context, query string) ([]models.Suggestion, error) {
	params := url.Values{}
	params.Set("name_like", query)
	u := c.baseURL + "/exercises?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: search %q: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lookup: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("lookup returned non-OK status", "status", resp.StatusCode, "query", query)
		return nil, fmt.Errorf("lookup: search %q returned %d", query, resp.StatusCode)
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		c.log.Warn("lookup returned malformed body", "error", err, "query", query)
		return nil, fmt.Errorf("lookup: decode search response: %w", err)
	}
	return suggestions, nil
}
