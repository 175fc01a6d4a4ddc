package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/internal/transport"
)

var _ longrun.Remote[File, *Document] = (*convertRemote)(nil)

// Client talks to a docling-serve instance.
type Client struct {
	httpClient *http.Client
	transport  *transport.Client
	logger     *slog.Logger

	url   string
	token string
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid url")
	}

	c := &Client{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),

		url: strings.TrimRight(url, "/"),
	}

	for _, option := range options {
		option(c)
	}

	c.transport = transport.NewClient(c.httpClient)

	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.Close()
}

type convertRemote struct {
	c *Client
}

// Convert returns the collaborator for asynchronous file conversion. The
// operation id is the docling task id.
func (c *Client) Convert() longrun.Remote[File, *Document] {
	return &convertRemote{c: c}
}

func (r *convertRemote) Initiate(ctx context.Context, input File) (longrun.Accepted, error) {
	if !isSupported(input) {
		return longrun.Accepted{}, fmt.Errorf("unsupported file %q", input.Name)
	}

	var data bytes.Buffer
	w := multipart.NewWriter(&data)

	file, err := w.CreateFormFile("files", input.Name)

	if err != nil {
		return longrun.Accepted{}, err
	}

	if _, err := io.Copy(file, bytes.NewReader(input.Content)); err != nil {
		return longrun.Accepted{}, err
	}

	if err := w.Close(); err != nil {
		return longrun.Accepted{}, err
	}

	resp, err := r.c.do(ctx, http.MethodPost, r.c.url+"/v1/convert/file/async", w.FormDataContentType(), data.Bytes())

	if err != nil {
		return longrun.Accepted{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return longrun.Accepted{}, convertError(resp)
	}

	var task Task

	if err := json.Unmarshal(resp.Body, &task); err != nil {
		return longrun.Accepted{}, fmt.Errorf("decode task: %w", err)
	}

	if task.TaskID == "" {
		return longrun.Accepted{}, errors.New("missing task id")
	}

	status := longrun.StatusNotStarted

	if task.TaskStatus != "" {
		if status, err = task.TaskStatus.toStatus(); err != nil {
			return longrun.Accepted{}, err
		}
	}

	return longrun.Accepted{
		ID:     task.TaskID,
		Status: status,
		Raw:    resp.Body,
	}, nil
}

func (r *convertRemote) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	resp, err := r.c.do(ctx, http.MethodGet, r.c.url+"/v1/status/poll/"+url.PathEscape(id), "", nil)

	if err != nil {
		return longrun.Report{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return longrun.Report{}, convertError(resp)
	}

	var task Task

	if err := json.Unmarshal(resp.Body, &task); err != nil {
		return longrun.Report{}, fmt.Errorf("decode task: %w", err)
	}

	status, err := task.TaskStatus.toStatus()

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
			Code:    string(task.TaskStatus),
			Message: task.ErrorMessage,
		}
	}

	return report, nil
}

func (r *convertRemote) FetchResult(ctx context.Context, id string) (*Document, error) {
	resp, err := r.c.do(ctx, http.MethodGet, r.c.url+"/v1/result/"+url.PathEscape(id), "", nil)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var result ConvertResult

	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	if result.Document == nil {
		if len(result.Errors) > 0 {
			return nil, errors.New(result.Errors[0].Message)
		}

		return nil, errors.New("no content")
	}

	return result.Document, nil
}

func (c *Client) do(ctx context.Context, method, u, contentType string, body []byte) (transport.Response, error) {
	header := http.Header{}

	if c.token != "" {
		header.Set("X-Api-Key", c.token)
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

func isSupported(input File) bool {
	if len(input.Content) == 0 {
		return false
	}

	if input.Name != "" {
		ext := strings.ToLower(path.Ext(input.Name))

		if slices.Contains(SupportedExtensions, ext) {
			return true
		}
	}

	return false
}

func convertError(resp transport.Response) error {
	if len(resp.Body) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	return errors.New(string(resp.Body))
}
