// Package dashboard provides the embedded status page for a run.
//
// The page lists every tracked operation and follows updates from the
// server's SSE stream. It is compiled into the binary so a run needs no
// external asset files.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the status page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - status page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
