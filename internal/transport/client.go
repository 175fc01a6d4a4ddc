package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// analysis results for large documents can run to tens of megabytes
const maxResponseBodySize = 64 << 20

// connection pooling limits to prevent resource exhaustion when tracking many operations
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Request describes one HTTP round trip made by [Client].
type Request struct {
	// Method defaults to GET when empty.
	Method string

	URL    string
	Header http.Header

	// Body is sent as is. Nil means no body.
	Body []byte

	// Timeout bounds the whole round trip. Zero means no extra timeout
	// beyond the caller's context.
	Timeout time.Duration
}

// Response holds the buffered result of a round trip made by [Client].
type Response struct {
	// Body contains the response body, limited to 64MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 202, 404).
	StatusCode int

	// Header is the response header.
	Header http.Header

	// Latency is the total time taken for the request.
	Latency time.Duration
}

// OK reports whether the status code is in the 2xx range.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is an HTTP client wrapper for talking to long-running operation
// endpoints.
//
// Client uses per-request timeouts via context rather than a global timeout,
// so one client can serve both quick status checks and slow uploads.
type Client struct {
	httpClient *http.Client
}

// NewHTTPClient returns an *http.Client with connection pooling limits suited
// to polling many operations on the same host.
//
// Connection pooling configuration:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds before closing idle connections
func NewHTTPClient() *http.Client {
	return &http.Client{
		// no default timeout - we use per-request timeouts via context
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			MaxConnsPerHost:     defaultMaxConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
			DisableKeepAlives:   false,
		},
	}
}

// NewClient wraps httpClient in a [Client]. A nil httpClient uses
// [NewHTTPClient].
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{httpClient: httpClient}
}

// Do performs the request and returns the buffered [Response].
//
// Only transport failures are returned as errors; a non-2xx status is a
// normal Response and the caller decides what it means.
func (c *Client) Do(ctx context.Context, r Request) (Response, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Latency: time.Since(start)}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Latency:    time.Since(start),
		}, fmt.Errorf("read response body: %w", err)
	}

	return Response{
		Body:       data,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Latency:    time.Since(start),
	}, nil
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times and on a nil client. After Close, the client
// remains usable.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}

// RetryAfter returns the poll delay suggested by the response headers, or
// zero when there is none.
//
// It understands retry-after-ms, Retry-After in seconds and Retry-After as an
// HTTP date.
func RetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	if v := strings.TrimSpace(h.Get("retry-after-ms")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
