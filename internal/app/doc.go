// Package app wires a configuration into a complete run: the service client,
// rate limiting, tracing, the tracker, the record store and the optional
// status server.
//
// Basic usage:
//
//	cfg, err := config.Load("longrun.yaml")
//	a, err := app.NewApp(cfg, app.Options{Logger: logger})
//	summary, err := a.Run(ctx)
package app
