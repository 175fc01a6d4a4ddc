package docintel

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/jpalmerr/longrun"
)

// AnalyzeRequest selects a model and the document to analyze. Exactly one of
// Content and URL must be set.
type AnalyzeRequest struct {
	// ModelID is a prebuilt model such as "prebuilt-receipt" or a custom
	// model id.
	ModelID string

	// Content is the raw document, sent as application/octet-stream.
	Content []byte

	// URL is a publicly reachable document URL.
	URL string

	// Pages restricts analysis to a page range such as "1-3,5".
	Pages string

	// Locale is a locale hint such as "en-US".
	Locale string

	// Features enables optional analysis features such as "keyValuePairs".
	Features []string

	// OutputContentFormat is "text" or "markdown". Empty uses the service
	// default.
	OutputContentFormat string
}

func (r AnalyzeRequest) validate() error {
	if r.ModelID == "" {
		return errors.New("model id is required")
	}
	if len(r.Content) == 0 && r.URL == "" {
		return errors.New("content or url is required")
	}
	if len(r.Content) > 0 && r.URL != "" {
		return errors.New("content and url are mutually exclusive")
	}
	return nil
}

var _ longrun.Remote[AnalyzeRequest, *AnalyzeResult] = (*analyzeRemote)(nil)

type analyzeRemote struct {
	c *Client
}

// Analyze returns the collaborator for analyze operations.
//
// Example:
//
//	p, err := longrun.New(client.Analyze())
//	h, err := p.Start(ctx, docintel.AnalyzeRequest{ModelID: "prebuilt-receipt", URL: receiptURL})
func (c *Client) Analyze() longrun.Remote[AnalyzeRequest, *AnalyzeResult] {
	return &analyzeRemote{c: c}
}

func (r *analyzeRemote) Initiate(ctx context.Context, req AnalyzeRequest) (longrun.Accepted, error) {
	if err := req.validate(); err != nil {
		return longrun.Accepted{}, err
	}

	query := url.Values{}

	if req.Pages != "" {
		query.Set("pages", req.Pages)
	}

	if req.Locale != "" {
		query.Set("locale", req.Locale)
	}

	if len(req.Features) > 0 {
		query.Set("features", strings.Join(req.Features, ","))
	}

	if req.OutputContentFormat != "" {
		query.Set("outputContentFormat", req.OutputContentFormat)
	}

	u := r.c.resourceURL("documentModels/"+url.PathEscape(req.ModelID)+":analyze", query)

	if req.URL != "" {
		body, err := json.Marshal(map[string]string{"urlSource": req.URL})
		if err != nil {
			return longrun.Accepted{}, err
		}

		return r.c.start(ctx, u, "application/json", body)
	}

	return r.c.start(ctx, u, "application/octet-stream", req.Content)
}

func (r *analyzeRemote) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	return r.c.checkStatus(ctx, id)
}

func (r *analyzeRemote) FetchResult(ctx context.Context, id string) (*AnalyzeResult, error) {
	op, err := r.c.succeeded(ctx, id)
	if err != nil {
		return nil, err
	}

	if op.AnalyzeResult == nil {
		return nil, errors.New("missing analyze result")
	}

	return op.AnalyzeResult, nil
}
