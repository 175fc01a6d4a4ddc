// Package docling implements a [longrun.Remote] collaborator for the
// asynchronous conversion API of docling-serve.
//
// A conversion is submitted with POST /v1/convert/file/async, polled with
// GET /v1/status/poll/{task_id} and read with GET /v1/result/{task_id}.
// Task statuses map onto [longrun.Status] as follows: pending is not
// started, started is running, success and failure are terminal, and
// revoked is a service-side cancellation.
package docling
