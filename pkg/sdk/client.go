// Package sdk provides the client-side library for talking to a celerix-apiforge daemon over HTTP.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

const defaultAttempts = 3

// Client is a remote client for the apiforge daemon.
// It implements the Forge interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
}

var _ Forge = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAttempts sets how many times idempotent requests are tried on transport errors.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// NewClient creates a client for the daemon at addr, e.g. http://localhost:7002.
func NewClient(addr string, opts ...Option) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		baseURL:    strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   defaultAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateUserAPI submits an API definition. The returned envelope is populated for
// 400 and 500 responses too; the error is then an *APIError.
func (c *Client) CreateUserAPI(ctx context.Context, sub Submission) (schema.Envelope, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return schema.Envelope{}, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/saveapi", body, 1)
	if err != nil {
		return schema.Envelope{}, err
	}
	defer resp.Body.Close()

	var env schema.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return schema.Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return env, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Violations: env.Error}
	}
	return env, nil
}

func (c *Client) GetUserAPI(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error) {
	var rec schema.UserAPIRecord
	err := c.getJSON(ctx, apiPath(userID, apiName), &rec)
	return rec, err
}

func (c *Client) ListUserAPIs(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := c.getJSON(ctx, "/api/users/"+url.PathEscape(userID)+"/apis", &names)
	return names, err
}

func (c *Client) GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error) {
	var rs schema.ResourceSchema
	err := c.getJSON(ctx, apiPath(userID, apiName)+"/resources/"+url.PathEscape(resource), &rs)
	return rs, err
}

func (c *Client) DeleteUserAPI(ctx context.Context, userID, apiName string) error {
	resp, err := c.send(ctx, http.MethodDelete, apiPath(userID, apiName), nil, c.attempts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errorFrom(resp)
	}
	return nil
}

// Ping checks that the daemon answers on the submission route.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/api/saveapi", nil, 1)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errorFrom(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.send(ctx, http.MethodGet, path, nil, c.attempts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errorFrom(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs the request, retrying transport failures with a growing backoff.
func (c *Client) send(ctx context.Context, method, path string, body []byte, attempts int) (*http.Response, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		fmt.Fprintf(os.Stderr, "[apiforge SDK] Attempt %d failed: %v. Retrying...\n", i+1, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration((i+1)*200) * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts. last error: %w", attempts, lastErr)
}

func errorFrom(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}
	if payload.Error == "" {
		payload.Error = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}

func apiPath(userID, apiName string) string {
	return "/api/users/" + url.PathEscape(userID) + "/apis/" + url.PathEscape(apiName)
}
