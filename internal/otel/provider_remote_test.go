package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/jpalmerr/longrun"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type stubRemote struct {
	checkErr error
}

func (r *stubRemote) Initiate(ctx context.Context, req string) (longrun.Accepted, error) {
	return longrun.Accepted{ID: "op-1", Status: longrun.StatusNotStarted}, nil
}

func (r *stubRemote) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	if r.checkErr != nil {
		return longrun.Report{}, r.checkErr
	}
	return longrun.Report{Status: longrun.StatusFailed, Error: &longrun.OperationError{Code: "Boom"}}, nil
}

func (r *stubRemote) FetchResult(ctx context.Context, id string) (string, error) {
	return "ok", nil
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp
}

func attr(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestNewRemote_Spans(t *testing.T) {
	sr, tp := newRecorder()
	r := NewRemote[string, string]("analyze", &stubRemote{}, WithTracerProvider(tp))

	ctx := context.Background()
	if _, err := r.Initiate(ctx, "doc"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CheckStatus(ctx, "op-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.FetchResult(ctx, "op-1"); err != nil {
		t.Fatal(err)
	}

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("len(spans) = %d, want 3", len(spans))
	}

	wantNames := []string{"initiate analyze", "check analyze", "fetch analyze"}
	for i, want := range wantNames {
		if spans[i].Name() != want {
			t.Errorf("span %d name = %q, want %q", i, spans[i].Name(), want)
		}
		if got := attr(spans[i].Attributes(), "longrun.operation.id"); got != "op-1" {
			t.Errorf("span %d operation id = %q, want op-1", i, got)
		}
	}

	if got := attr(spans[1].Attributes(), "longrun.status"); got != "failed" {
		t.Errorf("check span status = %q, want failed", got)
	}
	if got := attr(spans[1].Attributes(), "longrun.error.code"); got != "Boom" {
		t.Errorf("check span error code = %q, want Boom", got)
	}
}

func TestNewRemote_RecordsErrors(t *testing.T) {
	sr, tp := newRecorder()
	boom := errors.New("connection reset")
	r := NewRemote[string, string]("analyze", &stubRemote{checkErr: boom}, WithTracerProvider(tp))

	_, err := r.CheckStatus(context.Background(), "op-1")
	if !errors.Is(err, boom) {
		t.Fatalf("CheckStatus() error = %v, want %v", err, boom)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected an exception event on the span")
	}
}

func TestSetup_Disabled(t *testing.T) {
	EnableTelemetry = false

	shutdown, err := Setup(context.Background(), "longrun")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
