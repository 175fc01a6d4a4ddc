package docintel

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

	"github.com/google/uuid"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/internal/transport"
)

// DefaultAPIVersion is the service API version used unless overridden.
const DefaultAPIVersion = "2024-11-30"

// Client talks to one Document Intelligence resource.
//
// The long-running operations of the service are exposed as
// [longrun.Remote] collaborators ([Client.Analyze], [Client.BuildModel],
// [Client.CopyModel]); the operation id is the Operation-Location URL
// returned when the operation is accepted.
type Client struct {
	httpClient *http.Client
	transport  *transport.Client
	logger     *slog.Logger

	url        string
	token      string
	apiVersion string
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid url")
	}

	c := &Client{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),

		url:        strings.TrimRight(url, "/"),
		apiVersion: DefaultAPIVersion,
	}

	for _, option := range options {
		option(c)
	}

	c.transport = transport.NewClient(c.httpClient)

	return c, nil
}

// Endpoint returns the resource endpoint the client was created with.
func (c *Client) Endpoint() string {
	return c.url
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.Close()
}

// resourceURL builds an absolute URL below the documentintelligence root
// with the api-version applied.
func (c *Client) resourceURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)

	return c.url + "/documentintelligence/" + strings.TrimLeft(path, "/") + "?" + query.Encode()
}

// do sends one request with authentication and a client request id.
func (c *Client) do(ctx context.Context, method, u, contentType string, body []byte) (transport.Response, error) {
	requestID := uuid.NewString()

	header := http.Header{}
	header.Set("x-ms-client-request-id", requestID)
	if c.token != "" {
		header.Set("Ocp-Apim-Subscription-Key", c.token)
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
		c.logger.Debug("request failed",
			"method", method,
			"url", redact(u),
			"request_id", requestID,
			"error", err,
		)
		return resp, err
	}

	c.logger.Debug("request completed",
		"method", method,
		"url", redact(u),
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"latency", resp.Latency,
	)
	return resp, nil
}

// start posts an initiating request and converts the 202 answer into a
// [longrun.Accepted].
func (c *Client) start(ctx context.Context, u, contentType string, body []byte) (longrun.Accepted, error) {
	resp, err := c.do(ctx, http.MethodPost, u, contentType, body)
	if err != nil {
		return longrun.Accepted{}, err
	}

	if resp.StatusCode != http.StatusAccepted {
		return longrun.Accepted{}, convertError(resp)
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return longrun.Accepted{}, errors.New("missing operation location")
	}

	return longrun.Accepted{
		ID:         operationURL,
		Status:     longrun.StatusNotStarted,
		RetryAfter: transport.RetryAfter(resp.Header),
		Raw:        resp.Body,
	}, nil
}

// operation fetches and decodes the operation resource at operationURL.
func (c *Client) operation(ctx context.Context, operationURL string) (*Operation, transport.Response, error) {
	if _, err := url.ParseRequestURI(operationURL); err != nil {
		return nil, transport.Response{}, fmt.Errorf("invalid operation location: %w", err)
	}

	resp, err := c.do(ctx, http.MethodGet, operationURL, "", nil)
	if err != nil {
		return nil, resp, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp, convertError(resp)
	}

	var op Operation
	if err := json.Unmarshal(resp.Body, &op); err != nil {
		return nil, resp, fmt.Errorf("decode operation: %w", err)
	}

	return &op, resp, nil
}

// checkStatus performs one status round trip for any operation kind.
func (c *Client) checkStatus(ctx context.Context, operationURL string) (longrun.Report, error) {
	op, resp, err := c.operation(ctx, operationURL)
	if err != nil {
		return longrun.Report{}, err
	}

	status, err := op.Status.toStatus()
	if err != nil {
		return longrun.Report{}, err
	}

	report := longrun.Report{
		Status:     status,
		Raw:        resp.Body,
		RetryAfter: transport.RetryAfter(resp.Header),
	}

	if status == longrun.StatusFailed && op.Error != nil {
		report.Error = &longrun.OperationError{
			Code:    op.Error.Code,
			Message: op.Error.Message,
		}
	}

	return report, nil
}

// succeeded fetches the operation and checks that it completed successfully.
func (c *Client) succeeded(ctx context.Context, operationURL string) (*Operation, error) {
	op, _, err := c.operation(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	if op.Status != OperationStatusSucceeded {
		return nil, errors.New("operation " + string(op.Status))
	}

	return op, nil
}

// GetModel returns the details of a model in the resource.
func (c *Client) GetModel(ctx context.Context, modelID string) (*ModelDetails, error) {
	if modelID == "" {
		return nil, errors.New("model id is required")
	}

	resp, err := c.do(ctx, http.MethodGet, c.resourceURL("documentModels/"+url.PathEscape(modelID), nil), "", nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var model ModelDetails
	if err := json.Unmarshal(resp.Body, &model); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &model, nil
}

// DeleteModel deletes a custom model from the resource.
func (c *Client) DeleteModel(ctx context.Context, modelID string) error {
	if modelID == "" {
		return errors.New("model id is required")
	}

	resp, err := c.do(ctx, http.MethodDelete, c.resourceURL("documentModels/"+url.PathEscape(modelID), nil), "", nil)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return convertError(resp)
	}

	return nil
}

// redact drops the query string so that signed blob URLs never reach logs.
func redact(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
