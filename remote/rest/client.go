package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/internal/transport"
)

// idPlaceholder is replaced by the escaped operation id in URL templates.
const idPlaceholder = "{id}"

// Config describes one REST long-running operation API.
type Config struct {
	// SubmitURL receives the initiating request.
	SubmitURL string

	// Method of the initiating request. Defaults to POST.
	Method string

	// ContentType of the initiating request. Defaults to application/json.
	ContentType string

	// Header is sent with every request.
	Header http.Header

	// IDPath is the JSON path of the operation id in the submit response.
	// Empty means the id is the Operation-Location (or Location) header.
	IDPath string

	// StatusURL is the status endpoint with an {id} placeholder. Empty means
	// the operation id is itself the status URL.
	StatusURL string

	// ResultURL is the result endpoint with an {id} placeholder. Empty means
	// the result is read from the status response.
	ResultURL string

	// ResultPath is the JSON path of the result. Empty means the whole body.
	ResultPath string

	// ErrorCodePath and ErrorMessagePath locate the failure detail in the
	// status response. Default to error.code and error.message.
	ErrorCodePath    string
	ErrorMessagePath string

	// Mapper determines the status. Defaults to [DefaultMapper].
	Mapper StatusMapper
}

// Client is a [longrun.Remote] for REST APIs that follow the
// submit/poll/fetch pattern. Requests are raw JSON bodies and results are
// returned as [json.RawMessage].
type Client struct {
	cfg       Config
	transport *transport.Client
	logger    *slog.Logger
}

var _ longrun.Remote[[]byte, json.RawMessage] = (*Client)(nil)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = transport.NewClient(client)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a [Client] for the API described by cfg.
//
// Returns an error if the submit URL is missing or a URL template lacks the
// {id} placeholder.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SubmitURL == "" {
		return nil, errors.New("submit url is required")
	}
	if _, err := url.ParseRequestURI(cfg.SubmitURL); err != nil {
		return nil, fmt.Errorf("invalid submit url: %w", err)
	}
	if cfg.StatusURL != "" && !strings.Contains(cfg.StatusURL, idPlaceholder) {
		return nil, fmt.Errorf("status url must contain %s", idPlaceholder)
	}
	if cfg.ResultURL != "" && !strings.Contains(cfg.ResultURL, idPlaceholder) {
		return nil, fmt.Errorf("result url must contain %s", idPlaceholder)
	}
	if cfg.StatusURL == "" && cfg.IDPath != "" {
		return nil, errors.New("status url is required when the id comes from the body")
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	if cfg.ErrorCodePath == "" {
		cfg.ErrorCodePath = "error.code"
	}
	if cfg.ErrorMessagePath == "" {
		cfg.ErrorMessagePath = "error.message"
	}
	if cfg.Mapper == nil {
		cfg.Mapper = DefaultMapper
	}

	c := &Client{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.NewClient(nil)
	}

	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.Close()
}

func (c *Client) Initiate(ctx context.Context, body []byte) (longrun.Accepted, error) {
	resp, err := c.do(ctx, c.cfg.Method, c.cfg.SubmitURL, c.cfg.ContentType, body)
	if err != nil {
		return longrun.Accepted{}, err
	}
	if !resp.OK() {
		return longrun.Accepted{}, statusError(resp)
	}

	var id string
	if c.cfg.IDPath != "" {
		id = lookup(resp.Body, c.cfg.IDPath)
	} else {
		id = resp.Header.Get("Operation-Location")
		if id == "" {
			id = resp.Header.Get("Location")
		}
		if id != "" {
			id, err = resolve(c.cfg.SubmitURL, id)
			if err != nil {
				return longrun.Accepted{}, err
			}
		}
	}
	if id == "" {
		return longrun.Accepted{}, errors.New("missing operation id in submit response")
	}

	return longrun.Accepted{
		ID:         id,
		Status:     longrun.StatusNotStarted,
		RetryAfter: transport.RetryAfter(resp.Header),
		Raw:        resp.Body,
	}, nil
}

func (c *Client) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	resp, err := c.do(ctx, http.MethodGet, c.expand(c.cfg.StatusURL, id), "", nil)
	if err != nil {
		return longrun.Report{}, err
	}
	// a 202 is a normal in-progress answer for HTTPStatusMapper
	if resp.StatusCode >= 300 {
		return longrun.Report{}, statusError(resp)
	}

	status, err := c.cfg.Mapper(resp.Body, resp.StatusCode)
	if err != nil {
		return longrun.Report{}, err
	}

	report := longrun.Report{
		Status:     status,
		Raw:        resp.Body,
		RetryAfter: transport.RetryAfter(resp.Header),
	}

	if status == longrun.StatusFailed {
		report.Error = &longrun.OperationError{
			Code:    lookup(resp.Body, c.cfg.ErrorCodePath),
			Message: lookup(resp.Body, c.cfg.ErrorMessagePath),
		}
	}

	return report, nil
}

func (c *Client) FetchResult(ctx context.Context, id string) (json.RawMessage, error) {
	target := c.cfg.ResultURL
	if target == "" {
		target = c.cfg.StatusURL
	}

	resp, err := c.do(ctx, http.MethodGet, c.expand(target, id), "", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}

	return lookupRaw(resp.Body, c.cfg.ResultPath)
}

// expand fills the {id} placeholder of a URL template. An empty template
// means the id is the URL.
func (c *Client) expand(template, id string) string {
	if template == "" {
		return id
	}
	return strings.ReplaceAll(template, idPlaceholder, url.PathEscape(id))
}

func (c *Client) do(ctx context.Context, method, u, contentType string, body []byte) (transport.Response, error) {
	header := c.cfg.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: method,
		URL:    u,
		Header: header,
		Body:   body,
	})
	if err != nil {
		c.logger.Debug("request failed", "method", method, "url", u, "error", err)
		return resp, err
	}

	c.logger.Debug("request completed", "method", method, "url", u, "status_code", resp.StatusCode, "latency", resp.Latency)
	return resp, nil
}

// resolve makes a possibly relative location absolute against base.
func resolve(base, location string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	l, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid operation location: %w", err)
	}
	return b.ResolveReference(l).String(), nil
}

func statusError(resp transport.Response) error {
	if len(resp.Body) == 0 {
		return fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
}
