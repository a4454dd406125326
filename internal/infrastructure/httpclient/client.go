// Package httpclient builds the JSON API clients used by the provider adapters.
// Requests carry a bearer token from an oauth2 static token source and are
// traced through otelhttp.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 30 * time.Second
	// maxResponseSize bounds every decoded provider response.
	maxResponseSize = 4 << 20
	maxErrorBody    = 2 << 10
)

// Options configures one provider client.
type Options struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Headers are sent on every request.
	Headers map[string]string
	// Transport overrides the base transport, mainly for tests.
	Transport http.RoundTripper
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider   string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s %s: unexpected status %d: %s", e.Provider, e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client sends JSON requests to a single provider.
type Client struct {
	name    string
	baseURL string
	headers map[string]string
	http    *http.Client
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var transport http.RoundTripper = otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return opts.Name + " " + r.Method + " " + r.URL.Path
		}),
	)
	if opts.APIKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &Client{
		name:    opts.Name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		headers: opts.Headers,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Name returns the provider name used in errors and spans.
func (c *Client) Name() string {
	return c.name
}

// DoJSON sends body as JSON and decodes a 2xx response into out. Either may be nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	return c.Do(ctx, method, path, body, out, nil)
}

// Do is DoJSON with per-request headers.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", c.name, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", c.name, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Provider:   c.name,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.name, err)
	}
	return nil
}
