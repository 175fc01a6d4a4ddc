// Standalone mock operation server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/longrun run -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

func main() {
	fmt.Println("Mock operation server starting on :9999")
	fmt.Println("Jobs move through: queued → processing → done (or error)")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		jobs = make(map[string]*mockJob)
		mu   sync.Mutex
		seq  int
	)

	mux := http.NewServeMux()

	// submit answers with the job id in the body, like many queue-backed APIs
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seq++
		id := strconv.Itoa(seq)
		now := time.Now()
		jobs[id] = &mockJob{
			startAt: now.Add(time.Second),
			doneAt:  now.Add(time.Duration(3+rand.Intn(8)) * time.Second),
			fails:   rand.Intn(6) == 0,
		}
		mu.Unlock()

		slog.Info("job submitted", "id", id)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"job": map[string]string{"id": id}})
	})

	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		job, exists := jobs[r.PathValue("id")]
		mu.Unlock()

		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		resp := map[string]any{"id": r.PathValue("id")}
		now := time.Now()
		switch {
		case now.Before(job.startAt):
			resp["state"] = "queued"
		case now.Before(job.doneAt):
			resp["state"] = "processing"
		case job.fails:
			resp["state"] = "error"
			resp["failure"] = map[string]string{"reason": "Timeout", "detail": "worker did not respond"}
		default:
			resp["state"] = "done"
			resp["output"] = map[string]any{"pages": 1 + rand.Intn(10)}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type mockJob struct {
	startAt time.Time
	doneAt  time.Time
	fails   bool
}
