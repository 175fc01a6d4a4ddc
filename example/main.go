package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/remote/rest"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockOperationServer(":9999")
	time.Sleep(100 * time.Millisecond)

	client, err := rest.New(rest.Config{
		SubmitURL:  "http://localhost:9999/operations",
		ResultPath: "result",
	})
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	strategy, err := longrun.NewExponentialStrategy(
		longrun.WithInterval(500*time.Millisecond),
		longrun.WithMaxInterval(4*time.Second),
		longrun.WithMaxElapsed(time.Minute),
	)
	if err != nil {
		slog.Error("failed to create strategy", "error", err)
		os.Exit(1)
	}

	p, err := longrun.New[[]byte, json.RawMessage](client, longrun.WithStrategy(strategy))
	if err != nil {
		slog.Error("failed to create poller", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs := []string{"invoice", "receipt", "contract", "statement"}

	g, ctx := errgroup.WithContext(ctx)
	for _, doc := range docs {
		g.Go(func() error {
			return process(ctx, p, doc)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("run interrupted", "error", err)
		os.Exit(1)
	}
}

// process starts one operation and follows it to completion.
func process(ctx context.Context, p *longrun.Poller[[]byte, json.RawMessage], doc string) error {
	body, _ := json.Marshal(map[string]string{"document": doc})

	h, err := p.Start(ctx, body)
	if err != nil {
		return fmt.Errorf("%s: %w", doc, err)
	}

	w := p.Watch(ctx, h, nil)
	for u := range w.Updates() {
		slog.Info("status", "doc", doc, "status", u.Status(), "polls", u.Polls())
	}

	out, err := w.Outcome()
	if err != nil {
		return fmt.Errorf("%s: %w", doc, err)
	}

	result, err := longrun.ResultOf(out.Handle)
	var failed *longrun.OperationFailedError
	switch {
	case errors.As(err, &failed):
		// failed operations are reported, not returned
		fmt.Printf("%-10s failed after %d polls: %s\n", doc, out.Attempts, failed.Message)
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", doc, err)
	}

	fmt.Printf("%-10s succeeded after %d polls in %s: %s\n", doc, out.Attempts, out.Elapsed.Round(time.Millisecond), result)
	return nil
}
