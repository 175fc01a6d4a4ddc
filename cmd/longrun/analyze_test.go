package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeDocintel serves the analyze endpoint and an operation that succeeds on
// the second status check.
func fakeDocintel(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var polls atomic.Int32
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("POST /documentintelligence/documentModels/{model}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Operation-Location", srv.URL+"/documentintelligence/documentModels/prebuilt-read/analyzeResults/op-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /documentintelligence/documentModels/prebuilt-read/analyzeResults/op-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"running"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{"modelId":"prebuilt-read","content":"Total 42.00"}}`))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestRunAnalyze_File(t *testing.T) {
	srv, polls := fakeDocintel(t)

	file := filepath.Join(t.TempDir(), "receipt.pdf")
	if err := os.WriteFile(file, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}

	output, err := executeCmd(t, "analyze",
		"--endpoint", srv.URL,
		"--key", "test-key",
		"--model", "prebuilt-read",
		"--file", file,
		"--strategy", "fixed",
		"--interval", "100ms",
		"--min-interval", "1ms",
		"--log-level", "error",
	)
	if err != nil {
		t.Fatalf("analyze command error = %v", err)
	}

	var result struct {
		ModelID string `json:"modelId"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if result.Content != "Total 42.00" {
		t.Errorf("content = %q, want %q", result.Content, "Total 42.00")
	}
	if got := polls.Load(); got < 2 {
		t.Errorf("polls = %d, want at least 2", got)
	}
}

func TestRunStatus_SingleCheck(t *testing.T) {
	srv, polls := fakeDocintel(t)

	output, err := executeCmd(t, "status",
		"--operation", srv.URL+"/documentintelligence/documentModels/prebuilt-read/analyzeResults/op-1",
		"--key", "test-key",
		"--log-level", "error",
	)
	if err != nil {
		t.Fatalf("status command error = %v", err)
	}

	if !strings.Contains(output, `"status": "running"`) {
		t.Errorf("output = %s, want running status", output)
	}
	if got := polls.Load(); got != 1 {
		t.Errorf("polls = %d, want 1", got)
	}
}

func TestRunAnalyze_RequiresSource(t *testing.T) {
	t.Setenv("DOCINTEL_ENDPOINT", "https://example.com")

	_, err := executeCmd(t, "analyze", "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "--file or --url is required") {
		t.Errorf("error = %v, want missing source error", err)
	}
}

func TestRunAnalyze_FileAndURLExclusive(t *testing.T) {
	t.Setenv("DOCINTEL_ENDPOINT", "https://example.com")

	_, err := executeCmd(t, "analyze",
		"--file", "receipt.pdf",
		"--url", "https://example.com/receipt.pdf",
		"--log-level", "error",
	)
	if err == nil || !strings.Contains(err.Error(), "none of the others can be") {
		t.Errorf("error = %v, want mutually exclusive flags error", err)
	}
}
