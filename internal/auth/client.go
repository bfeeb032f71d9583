// Package auth is the adapter for the hosted authentication service. The
// core only ever reads the current user identifier; session and token
// management stay inside this package.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Provider is what the rest of the application sees: the current user id or
// none, change notification, and sign-out.
type Provider interface {
	CurrentUserID() (string, bool)
	Subscribe(fn func(userID string)) (unsubscribe func())
	SignOut()
}

// Client signs users in against the hosted auth service and tracks the
// resulting identity in memory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu      sync.Mutex
	userID  string
	token   string
	subs    map[int]func(string)
	nextSub int
}

var _ Provider = (*Client)(nil)

// NewClient creates an auth client targeting the given base URL.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		subs:       make(map[int]func(string)),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identity struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/v1/accounts", email, password)
}

// SignIn authenticates an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/v1/sessions", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) error {
	data, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("auth: marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("auth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("auth: %s returned %d: %s", path, resp.StatusCode, body)
	}

	var id identity
	if err := json.Unmarshal(body, &id); err != nil {
		return fmt.Errorf("auth: decode identity: %w", err)
	}
	if id.UserID == "" {
		return fmt.Errorf("auth: response missing user id")
	}

	c.setIdentity(id.UserID, id.Token)
	return nil
}

func (c *Client) setIdentity(userID, token string) {
	c.mu.Lock()
	c.userID = userID
	c.token = token
	fns := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}

// CurrentUserID returns the signed-in user's identifier, or false when no
// user is signed in. Safe to call synchronously at submit time.
func (c *Client) CurrentUserID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.userID != ""
}

// Token returns the current bearer token, empty when signed out. Handed to
// the store client as its token source.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe registers a callback invoked with the user id on every identity
// change (empty string on sign-out). The returned function unsubscribes.
func (c *Client) Subscribe(fn func(userID string)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// SignOut clears the current identity and notifies subscribers.
func (c *Client) SignOut() {
	c.setIdentity("", "")
}
