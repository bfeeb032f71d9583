// Package store is the adapter for the hosted document store. The core
// issues exactly two access patterns against it: create one document, and
// query a collection by owner ordered by date descending.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DocumentStore is the narrow contract the submitter and history view depend
// on. *Client satisfies it; tests substitute fakes.
type DocumentStore interface {
	CreateDocument(ctx context.Context, collection string, body any) (string, error)
	QueryDocuments(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error)
}

// Client talks to the document store's REST surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
	log        *slog.Logger
}

var _ DocumentStore = (*Client)(nil)

// NewClient creates a store client. token supplies the bearer token for each
// request and may be nil for unauthenticated stores.
func NewClient(baseURL string, timeout time.Duration, token func() string, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		log:        log,
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store: %s returned %d: %s", req.URL.Path, resp.StatusCode, body)
	}
	return body, nil
}

// CreateDocument writes one document into the collection and returns the
// server-assigned identifier.
func (c *Client) CreateDocument(ctx context.Context, collection string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("store: marshal document: %w", err)
	}

	u := fmt.Sprintf("%s/v1/collections/%s/documents", c.baseURL, url.PathEscape(collection))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("store: create request: %w", err)
	}

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("store: decode create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("store: create response missing document id")
	}
	return created.ID, nil
}

// QueryDocuments fetches the owner's documents from a collection, ordered by
// the date field descending. Each returned message is one full document
// including its id.
func (c *Client) QueryDocuments(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("ownerId", ownerID)
	params.Set("orderBy", "date")
	params.Set("order", "desc")

	u := fmt.Sprintf("%s/v1/collections/%s/documents?%s", c.baseURL, url.PathEscape(collection), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("store: create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("store: decode query response: %w", err)
	}
	return resp.Documents, nil
}
