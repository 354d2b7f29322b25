// Package platform talks to the Ziqni competition platform: the member-token
// and spaces endpoints on the platform API, the competitions/contests query
// endpoints, and the identity token exchange used by operational tooling.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Doer is the minimal HTTP execution surface the platform clients need, kept
// narrow so tests can substitute recorded transports.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewHTTPClient returns the transport shared by every upstream call. The
// timeout is the only hardening applied; there are no retries.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Client issues JSON calls against one base URL, attaching the bearer token
// and content type on every request.
type Client struct {
	baseURL string
	token   string
	doer    Doer
}

// NewClient binds a bearer token to a base URL. The client is stateless; build
// one per request with whichever token that call must carry.
func NewClient(baseURL, token string, doer Doer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		doer:    doer,
	}
}

// PostJSON sends payload to path and decodes the response body into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("platform: encode request: %w", err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

// GetJSON fetches path and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, out any) error {
	if c.doer == nil {
		return errors.New("platform: http client missing")
	}
	target, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("platform: request url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("platform: request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("platform: %s %s: %w", method, path, err)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	closeErr := resp.Body.Close()
	if err != nil {
		return fmt.Errorf("platform: read response: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("platform: close response: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("platform: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("platform: decode response: %w", err)
	}
	return nil
}
