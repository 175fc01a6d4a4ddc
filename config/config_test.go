package config

import (
	"strings"
	"testing"
	"time"
)

const minimalService = `
service:
  type: docintel
  endpoint: https://example.cognitiveservices.azure.com
  key: secret
`

func TestParse_MinimalConfig(t *testing.T) {
	yaml := minimalService + `
documents:
  - name: invoice
    path: ./invoice.pdf
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Polling.Strategy != StrategyFixed {
		t.Errorf("Polling.Strategy = %q, want fixed", cfg.Polling.Strategy)
	}
	if cfg.Polling.Interval.Duration() != 5*time.Second {
		t.Errorf("Polling.Interval = %v, want 5s", cfg.Polling.Interval.Duration())
	}
	if cfg.Polling.MinInterval.Duration() != time.Second {
		t.Errorf("Polling.MinInterval = %v, want 1s", cfg.Polling.MinInterval.Duration())
	}
	if cfg.Service.Burst != 1 {
		t.Errorf("Service.Burst = %d, want 1", cfg.Service.Burst)
	}
	if cfg.Documents[0].Model != "prebuilt-layout" {
		t.Errorf("Documents[0].Model = %q, want prebuilt-layout", cfg.Documents[0].Model)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Invoice backlog
concurrency: 8

service:
  type: docintel
  endpoint: https://example.cognitiveservices.azure.com
  key: secret
  api_version: 2024-07-31-preview
  rate: 2.5
  burst: 3
  timeout: 30s

polling:
  strategy: exponential
  interval: 2s
  min_interval: 500ms
  max_interval: 20s
  multiplier: 1.5
  max_attempts: 40
  timeout: 10m

server:
  enabled: true
  port: 9090
  keep_alive: true

documents:
  - name: march
    model: prebuilt-invoice
    url: https://example.com/march.pdf
    pages: 1-2
    locale: en-US
    features: [keyValuePairs]
    labels:
      team: billing
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Invoice backlog" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
	if cfg.Service.Rate != 2.5 || cfg.Service.Burst != 3 {
		t.Errorf("Service rate/burst = %v/%d, want 2.5/3", cfg.Service.Rate, cfg.Service.Burst)
	}
	if cfg.Service.Timeout.Duration() != 30*time.Second {
		t.Errorf("Service.Timeout = %v, want 30s", cfg.Service.Timeout.Duration())
	}
	if cfg.Polling.Multiplier != 1.5 || cfg.Polling.MaxAttempts != 40 {
		t.Errorf("Polling = %+v", cfg.Polling)
	}
	if cfg.Polling.Timeout.Duration() != 10*time.Minute {
		t.Errorf("Polling.Timeout = %v, want 10m", cfg.Polling.Timeout.Duration())
	}
	if !cfg.Server.Enabled || !cfg.Server.KeepAlive || cfg.Server.Port != 9090 {
		t.Errorf("Server = %+v", cfg.Server)
	}

	doc := cfg.Documents[0]
	if doc.Model != "prebuilt-invoice" || doc.Pages != "1-2" || doc.Locale != "en-US" {
		t.Errorf("Documents[0] = %+v", doc)
	}
	if len(doc.Features) != 1 || doc.Features[0] != "keyValuePairs" {
		t.Errorf("Features = %v", doc.Features)
	}
	if doc.Labels["team"] != "billing" {
		t.Errorf("Labels = %v", doc.Labels)
	}
}

func TestParse_RESTService(t *testing.T) {
	t.Setenv("OCR_TOKEN", "abc")

	yaml := `
service:
  type: rest
  rest:
    submit_url: https://ocr.example.com/jobs
    content_type: application/pdf
    headers:
      Authorization: Bearer ${OCR_TOKEN}
    id_path: job.id
    status_url: https://ocr.example.com/jobs/{id}
    status_path: job.state
    status_words:
      QUEUED: notStarted
      WORKING: running
      DONE: succeeded
    result_path: job.output

documents:
  - name: scan
    path: ./scan.pdf
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	r := cfg.Service.REST
	if r.Method != "POST" {
		t.Errorf("Method = %q, want POST default", r.Method)
	}
	if r.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("Authorization header = %q, want expanded", r.Headers["Authorization"])
	}

	words, err := r.StatusWordMap()
	if err != nil {
		t.Fatalf("StatusWordMap() error = %v", err)
	}
	if words["DONE"] != "succeeded" {
		t.Errorf("words[DONE] = %q, want succeeded", words["DONE"])
	}
}

func TestParse_BatchConfig(t *testing.T) {
	yaml := minimalService + `
batches:
  - name: receipts
    model: prebuilt-receipt
    path_template: "./receipts/{{.month}}/{{.store}}.jpg"
    dimensions:
      month: [jan, feb]
      store: [north, south]
    labels:
      source: scanner
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Batches) != 1 {
		t.Fatalf("len(Batches) = %d, want 1", len(cfg.Batches))
	}
	b := cfg.Batches[0]
	if len(b.Dimensions["month"]) != 2 || len(b.Dimensions["store"]) != 2 {
		t.Errorf("Dimensions = %v", b.Dimensions)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_ENDPOINT", "https://docs.example.com")
	t.Setenv("TEST_KEY", "k3y")
	t.Setenv("TEST_DIR", "/data")

	yaml := `
service:
  type: docintel
  endpoint: ${TEST_ENDPOINT}
  key: ${TEST_KEY}
documents:
  - name: invoice
    path: ${TEST_DIR}/invoice.pdf
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Service.Endpoint != "https://docs.example.com" {
		t.Errorf("Endpoint = %q", cfg.Service.Endpoint)
	}
	if cfg.Service.Key != "k3y" {
		t.Errorf("Key = %q", cfg.Service.Key)
	}
	if cfg.Documents[0].Path != "/data/invoice.pdf" {
		t.Errorf("Path = %q", cfg.Documents[0].Path)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
service:
  type: docling
  endpoint: ${UNSET_DOCLING_URL:-http://localhost:5001}
documents:
  - name: report
    path: ./report.pdf
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Service.Endpoint != "http://localhost:5001" {
		t.Errorf("Endpoint = %q, want default", cfg.Service.Endpoint)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
service:
  type: docintel
  endpoint: https://example.com
  key: ${MISSING_DOCINTEL_KEY}
documents:
  - name: invoice
    path: ./invoice.pdf
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "MISSING_DOCINTEL_KEY") {
		t.Errorf("error = %v, want mention of MISSING_DOCINTEL_KEY", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "missing service",
			yaml:        "documents:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "is required",
		},
		{
			name: "unknown service type",
			yaml: `
service:
  type: textract
  endpoint: https://example.com
documents:
  - name: a
    path: a.pdf
`,
			wantErrLike: "service.type: must be one of docintel docling rest",
		},
		{
			name:        "no documents or batches",
			yaml:        minimalService,
			wantErrLike: "at least one document or batch",
		},
		{
			name:        "document missing name",
			yaml:        minimalService + "documents:\n  - path: a.pdf\n",
			wantErrLike: "documents[0].name: is required",
		},
		{
			name:        "document missing source",
			yaml:        minimalService + "documents:\n  - name: a\n",
			wantErrLike: "documents[0] (a): path or url is required",
		},
		{
			name:        "document path and url",
			yaml:        minimalService + "documents:\n  - name: a\n    path: a.pdf\n    url: https://example.com/a.pdf\n",
			wantErrLike: "mutually exclusive",
		},
		{
			name:        "operation id with path",
			yaml:        minimalService + "documents:\n  - name: a\n    path: a.pdf\n    operation_id: https://example.com/op\n",
			wantErrLike: "operation_id cannot be combined",
		},
		{
			name: "url source on docling",
			yaml: `
service:
  type: docling
  endpoint: http://localhost:5001
documents:
  - name: a
    url: https://example.com/a.pdf
`,
			wantErrLike: "url sources are only supported",
		},
		{
			name: "endpoint without scheme",
			yaml: `
service:
  type: docintel
  endpoint: example.com
documents:
  - name: a
    path: a.pdf
`,
			wantErrLike: "service.endpoint",
		},
		{
			name:        "rest without rest block",
			yaml:        "service:\n  type: rest\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "service.rest is required",
		},
		{
			name: "rest with unknown status word",
			yaml: `
service:
  type: rest
  rest:
    submit_url: https://ocr.example.com/jobs
    status_words:
      DONE: finished
documents:
  - name: a
    path: a.pdf
`,
			wantErrLike: "status_words[DONE]",
		},
		{
			name:        "unknown strategy",
			yaml:        minimalService + "polling:\n  strategy: linear\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "polling.strategy: must be one of fixed exponential",
		},
		{
			name:        "negative concurrency",
			yaml:        minimalService + "concurrency: -1\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "concurrency: must be at least 0",
		},
		{
			name:        "multiplier below one",
			yaml:        minimalService + "polling:\n  multiplier: 0.5\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "polling.multiplier",
		},
		{
			name:        "interval too small",
			yaml:        minimalService + "polling:\n  interval: 10ms\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "polling.interval must be at least",
		},
		{
			name:        "exponential max below interval",
			yaml:        minimalService + "polling:\n  strategy: exponential\n  interval: 1m\n  max_interval: 10s\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "polling.max_interval",
		},
		{
			name:        "negative timeout",
			yaml:        minimalService + "polling:\n  timeout: -1s\ndocuments:\n  - name: a\n    path: a.pdf\n",
			wantErrLike: "polling.timeout cannot be negative",
		},
		{
			name:        "batch without dimensions",
			yaml:        minimalService + "batches:\n  - name: b\n    path_template: a.pdf\n",
			wantErrLike: "batches[0].dimensions: is required",
		},
		{
			name:        "batch invalid template",
			yaml:        minimalService + "batches:\n  - name: b\n    path_template: \"{{.month\"\n    dimensions:\n      month: [jan]\n",
			wantErrLike: "invalid template",
		},
		{
			name:        "batch duplicate dimension value",
			yaml:        minimalService + "batches:\n  - name: b\n    path_template: \"{{.month}}.pdf\"\n    dimensions:\n      month: [jan, jan]\n",
			wantErrLike: "duplicate value",
		},
		{
			name:        "batch empty dimension",
			yaml:        minimalService + "batches:\n  - name: b\n    path_template: \"{{.month}}.pdf\"\n    dimensions:\n      month: []\n",
			wantErrLike: "has no values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %q, want containing %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_ResumeDocument(t *testing.T) {
	yaml := minimalService + `
documents:
  - name: earlier
    operation_id: https://example.com/documentintelligence/documentModels/prebuilt-layout/analyzeResults/123
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Documents[0].OperationID == "" {
		t.Error("OperationID not parsed")
	}
}

func TestParse_ZeroMinInterval(t *testing.T) {
	yaml := minimalService + `
polling:
  interval: 200ms
  min_interval: 0s
documents:
  - name: invoice
    path: ./invoice.pdf
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Polling.MinInterval == nil || cfg.Polling.MinInterval.Duration() != 0 {
		t.Errorf("Polling.MinInterval = %v, want explicit 0", cfg.Polling.MinInterval)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("service: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want YAML parse error", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := minimalService + `
polling:
  interval: soon
documents:
  - name: a
    path: a.pdf
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want invalid duration", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1s", time.Second},
		{"500ms", 500 * time.Millisecond},
		{"1m30s", 90 * time.Second},
		{"2h", 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			yaml := minimalService + "polling:\n  timeout: " + tt.input + "\ndocuments:\n  - name: a\n    path: a.pdf\n"
			cfg, err := Parse([]byte(yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Polling.Timeout.Duration() != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Polling.Timeout.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
