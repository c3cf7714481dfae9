// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package restapi provides the HTTP client shared by the REST-backed tools
// (Observe, ArgoCD, Confluence) and Bicep template downloads.
//
// The client never retries. Every response, successful or not, is returned
// with its status code so tools can propagate it to the caller.
package restapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
)

// Configuration constants for the REST client.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the default maximum response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "clitools/1.0"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// sharedTransport is used by every client that does not bring its own.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Error variables for common HTTP failures. StatusError unwraps to these.
var (
	// ErrAuthFailed indicates a 401 response.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrForbidden indicates a 403 response.
	ErrForbidden = errors.New("permission denied")

	// ErrNotFound indicates a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates a 429 response.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")

	// ErrResponseTooLarge indicates the body exceeded the size limit.
	ErrResponseTooLarge = errors.New("response exceeded maximum size")
)

// StatusError is returned by the JSON helpers for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// Unwrap maps well-known statuses to the package sentinel errors.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrAuthFailed
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServer
	}
	return nil
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a small REST client bound to one base URL.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	headers         http.Header
	basicUser       string
	basicPass       string
	useBasic        bool
	limiter         *rate.Limiter
	maxResponseSize int64
}

// New creates a client for baseURL with default timeout and size limits.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		headers: http.Header{
			"User-Agent":   []string{userAgent},
			"Accept":       []string{"application/json"},
			"Content-Type": []string{"application/json"},
		},
		maxResponseSize: MaxResponseSize,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying http.Client. Tests use this with
// httptest servers.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithHeader sets a header sent on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// WithAuthorization sets a raw Authorization header value.
func (c *Client) WithAuthorization(value string) *Client {
	return c.WithHeader("Authorization", value)
}

// WithBearerToken sets "Authorization: Bearer <token>".
func (c *Client) WithBearerToken(token string) *Client {
	return c.WithAuthorization("Bearer " + strings.TrimSpace(token))
}

// WithBasicAuth enables HTTP basic authentication.
func (c *Client) WithBasicAuth(username, password string) *Client {
	c.basicUser = username
	c.basicPass = password
	c.useBasic = true
	return c
}

// WithRateLimit throttles requests to rps with the given burst.
// A non-positive rps disables throttling.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithMaxResponseSize caps how much of a body is read.
func (c *Client) WithMaxResponseSize(n int64) *Client {
	if n > 0 {
		c.maxResponseSize = n
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUESTS
// =============================================================================

// Request describes one API call.
type Request struct {
	Method string

	// Path is appended to the base URL; absolute URLs are used as given
	Path string

	// Query is encoded onto the URL
	Query url.Values

	// RawQuery is appended verbatim after Query
	RawQuery string

	// Body is sent as is; JSON is marshaled when Body is nil
	Body []byte
	JSON interface{}

	// Timeout overrides the client timeout for this request
	Timeout time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body as JSON.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// URL builds the full request URL for path and query.
func (c *Client) URL(path string, query url.Values, rawQuery string) string {
	full := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		full = c.baseURL + path
	}

	q := query.Encode()
	if rawQuery != "" {
		if q != "" {
			q += "&"
		}
		q += strings.TrimPrefix(rawQuery, "?")
	}
	if q != "" {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + q
	}
	return full
}

// Do performs the request and returns the response whatever its status.
// Transport failures come back as *NetworkError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	body := r.Body
	if body == nil && r.JSON != nil {
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = data
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Kind: KindTimeout, URL: r.Path, Err: err}
		}
	}

	fullURL := c.URL(r.Path, r.Query, r.RawQuery)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	if c.useBasic {
		req.SetBasicAuth(c.basicUser, c.basicPass)
	}

	logger := ctxlog.FromContext(ctx)
	// Don't log headers (auth) or bodies (query payloads)
	logger.Debug("api request", "method", method, "host", req.URL.Host, "path", req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(fullURL, err)
	}
	defer resp.Body.Close()

	data, err := c.readResponse(resp)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}

	logger.Debug("api response", "status", resp.StatusCode, "path", req.URL.Path, "duration", duration)

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
		Duration:   duration,
	}, nil
}

// readResponse reads the response body with size limits.
// SECURITY: Response size limit prevents memory exhaustion.
func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, c.maxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}
	return body, nil
}

// GetJSON performs a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.doJSON(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// PostJSON performs a POST with in as the JSON body and decodes into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	return c.doJSON(ctx, Request{Method: http.MethodPost, Path: path, JSON: in}, out)
}

func (c *Client) doJSON(ctx context.Context, r Request, out interface{}) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return &StatusError{Method: r.Method, Path: r.Path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// Download fetches an absolute URL and returns the body when the status is 2xx.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid download URL %q", rawURL)
	}
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: rawURL})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Method: http.MethodGet, Path: u.Path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}
