package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockOperation tracks when a single operation finishes and how.
type mockOperation struct {
	size   int
	doneAt time.Time
	fails  bool
}

// StartMockOperationServer runs a mock long-running operation API.
// POST /operations accepts a document and answers 202 with an
// Operation-Location; each operation takes 2-6 seconds and one in five fails.
// Call this in a goroutine before starting operations.
func StartMockOperationServer(addr string) {
	var (
		ops = make(map[string]*mockOperation)
		mu  sync.Mutex
		seq int
	)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /operations", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		seq++
		id := fmt.Sprintf("op-%d", seq)
		ops[id] = &mockOperation{
			size:   len(body),
			doneAt: time.Now().Add(time.Duration(2+rand.Intn(5)) * time.Second),
			fails:  rand.Intn(5) == 0,
		}
		mu.Unlock()

		slog.Info("operation accepted", "id", id, "bytes", len(body))

		w.Header().Set("Operation-Location", "/operations/"+id)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("GET /operations/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		op, exists := ops[r.PathValue("id")]
		mu.Unlock()

		if !exists {
			http.Error(w, `{"error":{"code":"NotFound","message":"unknown operation"}}`, http.StatusNotFound)
			return
		}

		resp := map[string]any{"status": "running"}
		switch {
		case time.Now().Before(op.doneAt):
			w.Header().Set("Retry-After", "1")
		case op.fails:
			resp["status"] = "failed"
			resp["error"] = map[string]string{"code": "Unreadable", "message": "document could not be parsed"}
		default:
			resp["status"] = "succeeded"
			resp["result"] = map[string]int{"bytes": op.size}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
