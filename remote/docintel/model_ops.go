package docintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jpalmerr/longrun"
)

// BuildRequest describes a custom model to train from labeled documents in
// a blob container.
type BuildRequest struct {
	ModelID     string
	Description string

	// BuildMode defaults to [BuildModeTemplate].
	BuildMode BuildMode

	// ContainerURL is a SAS URL of the training data container.
	ContainerURL string

	// Prefix restricts training data to blobs below a folder.
	Prefix string

	Tags map[string]string
}

type azureBlobSource struct {
	ContainerURL string `json:"containerUrl"`
	Prefix       string `json:"prefix,omitempty"`
}

type buildBody struct {
	ModelID     string            `json:"modelId"`
	Description string            `json:"description,omitempty"`
	BuildMode   BuildMode         `json:"buildMode"`
	BlobSource  azureBlobSource   `json:"azureBlobSource"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// CopyRequest copies a model of this resource into the resource that issued
// the authorization.
type CopyRequest struct {
	SourceModelID string
	Authorization CopyAuthorization
}

var (
	_ longrun.Remote[BuildRequest, *ModelDetails] = (*buildRemote)(nil)
	_ longrun.Remote[CopyRequest, *ModelDetails]  = (*copyRemote)(nil)
)

type buildRemote struct {
	c *Client
}

// BuildModel returns the collaborator for model build operations.
func (c *Client) BuildModel() longrun.Remote[BuildRequest, *ModelDetails] {
	return &buildRemote{c: c}
}

func (r *buildRemote) Initiate(ctx context.Context, req BuildRequest) (longrun.Accepted, error) {
	if req.ModelID == "" {
		return longrun.Accepted{}, errors.New("model id is required")
	}

	if req.ContainerURL == "" {
		return longrun.Accepted{}, errors.New("container url is required")
	}

	mode := req.BuildMode

	if mode == "" {
		mode = BuildModeTemplate
	}

	if mode != BuildModeTemplate && mode != BuildModeNeural {
		return longrun.Accepted{}, fmt.Errorf("invalid build mode %q", mode)
	}

	body, err := json.Marshal(buildBody{
		ModelID:     req.ModelID,
		Description: req.Description,
		BuildMode:   mode,
		BlobSource: azureBlobSource{
			ContainerURL: req.ContainerURL,
			Prefix:       req.Prefix,
		},
		Tags: req.Tags,
	})

	if err != nil {
		return longrun.Accepted{}, err
	}

	return r.c.start(ctx, r.c.resourceURL("documentModels:build", nil), "application/json", body)
}

func (r *buildRemote) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	return r.c.checkStatus(ctx, id)
}

func (r *buildRemote) FetchResult(ctx context.Context, id string) (*ModelDetails, error) {
	return r.c.modelResult(ctx, id)
}

type copyRemote struct {
	c *Client
}

// CopyModel returns the collaborator for model copy operations. The client
// must point at the source resource; the authorization comes from
// [Client.AuthorizeCopy] on the target resource.
func (c *Client) CopyModel() longrun.Remote[CopyRequest, *ModelDetails] {
	return &copyRemote{c: c}
}

func (r *copyRemote) Initiate(ctx context.Context, req CopyRequest) (longrun.Accepted, error) {
	if req.SourceModelID == "" {
		return longrun.Accepted{}, errors.New("source model id is required")
	}

	if req.Authorization.AccessToken == "" || req.Authorization.TargetResourceID == "" {
		return longrun.Accepted{}, errors.New("copy authorization is required")
	}

	body, err := json.Marshal(req.Authorization)

	if err != nil {
		return longrun.Accepted{}, err
	}

	u := r.c.resourceURL("documentModels/"+url.PathEscape(req.SourceModelID)+":copyTo", nil)

	return r.c.start(ctx, u, "application/json", body)
}

func (r *copyRemote) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	return r.c.checkStatus(ctx, id)
}

func (r *copyRemote) FetchResult(ctx context.Context, id string) (*ModelDetails, error) {
	return r.c.modelResult(ctx, id)
}

// AuthorizeCopy asks this (target) resource for permission to copy a model
// into it under modelID.
func (c *Client) AuthorizeCopy(ctx context.Context, modelID, description string) (*CopyAuthorization, error) {
	if modelID == "" {
		return nil, errors.New("model id is required")
	}

	body, err := json.Marshal(map[string]string{
		"modelId":     modelID,
		"description": description,
	})

	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, c.resourceURL("documentModels:authorizeCopy", nil), "application/json", body)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var auth CopyAuthorization

	if err := json.Unmarshal(resp.Body, &auth); err != nil {
		return nil, fmt.Errorf("decode copy authorization: %w", err)
	}

	return &auth, nil
}

// modelResult reads the model details from a succeeded build or copy
// operation.
func (c *Client) modelResult(ctx context.Context, operationURL string) (*ModelDetails, error) {
	op, err := c.succeeded(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	if len(op.Result) == 0 {
		return nil, errors.New("missing model result")
	}

	var model ModelDetails

	if err := json.Unmarshal(op.Result, &model); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &model, nil
}
