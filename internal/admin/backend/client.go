// Package backend holds the shared REST plumbing used by every domain
// client that talks to the remote order API.
package backend

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
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Error is a decoded backend failure. StatusCode carries the upstream HTTP
// status so handlers can forward it instead of collapsing everything to 502.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
}

// StatusFromError returns the upstream status carried by err, or 0 when err
// is not a backend error.
func StatusFromError(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// Client resolves endpoints against a base URL and attaches bearer tokens.
type Client struct {
	base   *url.URL
	client HTTPClient
}

// NewClient constructs a Client for the given backend base URL.
func NewClient(baseURL string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("backend: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	// ResolveReference drops the last path segment of a base without a
	// trailing slash, so `http://host/api` would lose `/api`.
	if parsed.Path != "" && !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		base:   parsed,
		client: client,
	}, nil
}

// Do executes the request via the configured HTTP client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: request failed: %w", err)
	}
	return resp, nil
}

// NewRequest builds a request against the backend with the bearer token attached.
func (c *Client) NewRequest(ctx context.Context, method, endpoint string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// NewJSONRequest builds a request carrying a JSON-encoded payload.
func (c *Client) NewJSONRequest(ctx context.Context, method, endpoint string, payload any, token string) (*http.Request, error) {
	var buf bytes.Buffer
	if payload != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return nil, fmt.Errorf("backend: encode payload: %w", err)
		}
	}
	req, err := c.NewRequest(ctx, method, endpoint, &buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Resolve joins an endpoint path to the base URL. Absolute URLs pass through.
func (c *Client) Resolve(endpoint string) string {
	if endpoint == "" {
		return c.base.String()
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		ref = &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	}
	return c.base.ResolveReference(ref).String()
}

// ErrorFromResponse decodes the backend's {code,message} envelope into an
// *Error, falling back to the raw body or the HTTP status text.
func (c *Client) ErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	type errorPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	var payload errorPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return &Error{StatusCode: resp.StatusCode, Code: strings.TrimSpace(payload.Code), Message: payload.Message}
		}
	}
	if len(body) > 0 {
		return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
