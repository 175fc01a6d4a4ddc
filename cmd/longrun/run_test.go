package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/longrun/internal/app"
	"github.com/jpalmerr/longrun/internal/store"
)

func TestRunRun_PrintsSummary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"job":{"id":"j-1"}}`))
	})
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"state":"DONE","output":{"text":"hello"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc := filepath.Join(t.TempDir(), "letter.json")
	if err := os.WriteFile(doc, []byte(`{"text":"hi"}`), 0644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}

	configPath := writeConfig(t, fmt.Sprintf(`
service:
  type: rest
  rest:
    submit_url: %[1]s/jobs
    id_path: job.id
    status_url: "%[1]s/jobs/{id}"
    status_path: state
    status_words:
      DONE: succeeded
    result_path: output
polling:
  interval: 100ms
  min_interval: 1ms
documents:
  - name: letter
    path: %[2]s
`, srv.URL, doc))

	outDir := t.TempDir()
	output, err := executeCmd(t, "run", "-c", configPath, "-o", outDir, "--log-level", "error")
	if err != nil {
		t.Fatalf("run command error = %v", err)
	}

	for _, phrase := range []string{"NAME", "OUTCOME", "letter", "succeeded", "1 succeeded, 0 failed, 0 unfinished"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "letter.json"))
	if err != nil {
		t.Fatalf("result file error = %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("result = %s, want output payload", data)
	}
}

func TestRunRun_InvalidLogLevel(t *testing.T) {
	_, err := executeCmd(t, "run", "-c", "unused.yaml", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v, want invalid log level", err)
	}
}

func TestPrintSummary(t *testing.T) {
	msg := "unexpected status 400"
	var b strings.Builder

	err := printSummary(&b, &app.Summary{
		Records: []store.OperationRecord{
			{Name: "a", Outcome: "succeeded", Polls: 3, ElapsedMs: 1200, Final: true},
			{Name: "b", Outcome: "rejected", Error: &msg, Final: true},
		},
		Succeeded: 1,
		Failed:    1,
	})
	if err != nil {
		t.Fatalf("printSummary() error = %v", err)
	}

	out := b.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "1200ms") {
		t.Errorf("line %q missing elapsed", lines[1])
	}
	if !strings.Contains(lines[2], msg) {
		t.Errorf("line %q missing error", lines[2])
	}
	if !strings.HasSuffix(out, "1 succeeded, 1 failed, 0 unfinished\n") {
		t.Errorf("summary line missing:\n%s", out)
	}
}
