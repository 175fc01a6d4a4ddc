// Package server provides the HTTP server for operation status.
//
// It handles all HTTP concerns of a run:
//
//   - Dashboard serving: the embedded status page at "/"
//   - REST API: "/api/operations" and "/api/operations/{name}"
//   - Server-Sent Events: real-time record updates at "/api/sse"
//   - Metrics and health: "/metrics" and "/healthz"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
