package docintel

import (
	"log/slog"
	"net/http"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithToken sets the resource key sent as Ocp-Apim-Subscription-Key.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPIVersion overrides the api-version query parameter.
// Defaults to [DefaultAPIVersion].
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithLogger sets the logger for request diagnostics. Nil keeps the
// discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// https://learn.microsoft.com/en-us/azure/ai-services/document-intelligence/concept-layout?view=doc-intel-4.0.0&tabs=sample-code#input-requirements
var SupportedExtensions = []string{
	".pdf",

	".jpeg", ".jpg",
	".png",
	".bmp",
	".tiff",
	".heif",

	".docx",
	".pptx",
	".xlsx",
	".html",
}
