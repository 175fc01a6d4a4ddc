// Package transport provides the shared HTTP plumbing used by the remote
// collaborators in this module.
//
// The main components are:
//
//   - [Client]: pooled HTTP client with per-request timeouts and a response
//     size limit
//   - [Request] and [Response]: buffered request and response values
//   - [RetryAfter]: parses server poll hints from response headers
//
// Users of the longrun library should not need this package; the remote
// packages accept a plain *http.Client.
package transport
