package docling

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

// WithToken sets the API key sent as X-Api-Key.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

var SupportedExtensions = []string{
	".pdf",

	".jpeg", ".jpg",
	".png",
	".bmp",
	".tiff",

	".docx",
	".pptx",
	".xlsx",
	".html",
	".md",
}
