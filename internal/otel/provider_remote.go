package otel

import (
	"context"

	"github.com/jpalmerr/longrun"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*options)

type options struct {
	provider trace.TracerProvider
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.provider = tp
		}
	}
}

type observableRemote[Req, Res any] struct {
	kind   string
	tracer trace.Tracer

	remote longrun.Remote[Req, Res]
}

// NewRemote wraps a collaborator so that every call runs in a span named
// after the call and the operation kind (e.g. "check analyze").
func NewRemote[Req, Res any](kind string, r longrun.Remote[Req, Res], opts ...Option) longrun.Remote[Req, Res] {
	o := &options{
		provider: otel.GetTracerProvider(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &observableRemote[Req, Res]{
		kind:   kind,
		tracer: o.provider.Tracer(instrumentationName),

		remote: r,
	}
}

func (p *observableRemote[Req, Res]) Initiate(ctx context.Context, req Req) (longrun.Accepted, error) {
	ctx, span := p.tracer.Start(ctx, "initiate "+p.kind, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	acc, err := p.remote.Initiate(ctx, req)

	if err != nil {
		recordError(span, err)
		return acc, err
	}

	span.SetAttributes(
		attribute.String("longrun.operation.id", acc.ID),
		attribute.String("longrun.status", string(acc.Status)),
	)

	return acc, nil
}

func (p *observableRemote[Req, Res]) CheckStatus(ctx context.Context, id string) (longrun.Report, error) {
	ctx, span := p.tracer.Start(ctx, "check "+p.kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("longrun.operation.id", id)),
	)
	defer span.End()

	report, err := p.remote.CheckStatus(ctx, id)

	if err != nil {
		recordError(span, err)
		return report, err
	}

	span.SetAttributes(attribute.String("longrun.status", string(report.Status)))

	if report.Error != nil {
		span.SetAttributes(attribute.String("longrun.error.code", report.Error.Code))
	}

	return report, nil
}

func (p *observableRemote[Req, Res]) FetchResult(ctx context.Context, id string) (Res, error) {
	ctx, span := p.tracer.Start(ctx, "fetch "+p.kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("longrun.operation.id", id)),
	)
	defer span.End()

	result, err := p.remote.FetchResult(ctx, id)

	if err != nil {
		recordError(span, err)
	}

	return result, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
