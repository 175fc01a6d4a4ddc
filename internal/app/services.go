package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jpalmerr/longrun/config"
	"github.com/jpalmerr/longrun/internal/tracker"
	"github.com/jpalmerr/longrun/remote/docintel"
	"github.com/jpalmerr/longrun/remote/docling"
	"github.com/jpalmerr/longrun/remote/rest"
)

// Operation kinds, used in metrics, spans and records.
const (
	KindAnalyze = "analyze"
	KindConvert = "convert"
	KindREST    = "rest"
)

func newDocintelPipeline(cfg *config.Config, client *http.Client, logger *slog.Logger, jobs []config.Job) (pipeline, error) {
	opts := []docintel.Option{
		docintel.WithClient(client),
		docintel.WithLogger(logger),
	}
	if cfg.Service.Key != "" {
		opts = append(opts, docintel.WithToken(cfg.Service.Key))
	}
	if cfg.Service.APIVersion != "" {
		opts = append(opts, docintel.WithAPIVersion(cfg.Service.APIVersion))
	}

	c, err := docintel.New(cfg.Service.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docintel client: %w", err)
	}

	tjobs, err := trackerJobs(jobs, func(j config.Job) (docintel.AnalyzeRequest, error) {
		req := docintel.AnalyzeRequest{
			ModelID:  j.Model,
			URL:      j.URL,
			Pages:    j.Pages,
			Locale:   j.Locale,
			Features: j.Features,
		}
		if j.Path != "" {
			content, err := os.ReadFile(j.Path)
			if err != nil {
				return req, err
			}
			req.Content = content
		}
		return req, nil
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return &servicePipeline[docintel.AnalyzeRequest, *docintel.AnalyzeResult]{
		name:   KindAnalyze,
		remote: c.Analyze(),
		jobs:   tjobs,
		closer: c.Close,
	}, nil
}

func newDoclingPipeline(cfg *config.Config, client *http.Client, logger *slog.Logger, jobs []config.Job) (pipeline, error) {
	opts := []docling.Option{
		docling.WithClient(client),
		docling.WithLogger(logger),
	}
	if cfg.Service.Key != "" {
		opts = append(opts, docling.WithToken(cfg.Service.Key))
	}

	c, err := docling.New(cfg.Service.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docling client: %w", err)
	}

	tjobs, err := trackerJobs(jobs, func(j config.Job) (docling.File, error) {
		if j.Path == "" {
			return docling.File{}, nil
		}
		content, err := os.ReadFile(j.Path)
		if err != nil {
			return docling.File{}, err
		}
		return docling.File{
			Name:        filepath.Base(j.Path),
			Content:     content,
			ContentType: contentType(j.Path),
		}, nil
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return &servicePipeline[docling.File, *docling.Document]{
		name:   KindConvert,
		remote: c.Convert(),
		jobs:   tjobs,
		closer: c.Close,
	}, nil
}

func newRESTPipeline(cfg *config.Config, client *http.Client, logger *slog.Logger, jobs []config.Job) (pipeline, error) {
	rc := cfg.Service.REST
	if rc == nil {
		return nil, fmt.Errorf("service.rest is required for service type %q", config.ServiceREST)
	}

	mapper := rest.DefaultMapper
	if rc.StatusPath != "" {
		words, err := rc.StatusWordMap()
		if err != nil {
			return nil, fmt.Errorf("service.rest.%w", err)
		}
		mapper = rest.FirstMatch(rest.JSONFieldMapper(rc.StatusPath, words), rest.HTTPStatusMapper)
	}

	header := http.Header{}
	for k, v := range rc.Headers {
		header.Set(k, v)
	}

	c, err := rest.New(rest.Config{
		SubmitURL:        rc.SubmitURL,
		Method:           rc.Method,
		ContentType:      rc.ContentType,
		Header:           header,
		IDPath:           rc.IDPath,
		StatusURL:        rc.StatusURL,
		ResultURL:        rc.ResultURL,
		ResultPath:       rc.ResultPath,
		ErrorCodePath:    rc.ErrorCodePath,
		ErrorMessagePath: rc.ErrorMessagePath,
		Mapper:           mapper,
	}, rest.WithClient(client), rest.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create rest client: %w", err)
	}

	tjobs, err := trackerJobs(jobs, func(j config.Job) ([]byte, error) {
		if j.Path == "" {
			return nil, nil
		}
		return os.ReadFile(j.Path)
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return &servicePipeline[[]byte, json.RawMessage]{
		name:   KindREST,
		remote: c,
		jobs:   tjobs,
		closer: c.Close,
	}, nil
}

// trackerJobs builds the service request of every job. Jobs that resume an
// operation carry no request.
func trackerJobs[Req any](jobs []config.Job, build func(config.Job) (Req, error)) ([]tracker.Job[Req], error) {
	out := make([]tracker.Job[Req], 0, len(jobs))

	for _, j := range jobs {
		tj := tracker.Job[Req]{
			Name:        j.Name,
			OperationID: j.OperationID,
			Labels:      j.Labels,
		}

		if j.OperationID == "" {
			req, err := build(j)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", j.Name, err)
			}
			tj.Request = req
		}

		out = append(out, tj)
	}

	return out, nil
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
