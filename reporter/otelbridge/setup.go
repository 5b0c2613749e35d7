package otelbridge

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

const instrumentationName = "github.com/aalemi-dev/apm-lab/reporter/otelbridge"

// Bridge re-creates every reported unit as an OpenTelemetry span with the
// unit's own IDs and timestamps.
//
// It implements tracer.Reporter.
type Bridge struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	log      logger.Logger
	observer observability.Observer
}

// Option customizes a Bridge.
type Option func(*options)

type options struct {
	log      logger.Logger
	observer observability.Observer
	extra    []sdktrace.TracerProviderOption
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithSyncer exports spans synchronously through exp. Tests pair it with
// tracetest.NewInMemoryExporter.
func WithSyncer(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.extra = append(o.extra, sdktrace.WithSyncer(exp)) }
}

// NewBridge sets up the tracer provider: resource attributes from cfg, an
// OTLP/HTTP batch exporter when export is enabled, and ID reuse for
// reported units.
func NewBridge(cfg Config, opts ...Option) (*Bridge, error) {
	o := options{log: logger.NewNop(), observer: observability.NewNoOpObserver()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.observer == nil {
		o.observer = observability.NewNoOpObserver()
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithIDGenerator(eventIDs{}),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.AppEnv),
			attribute.String("environment", cfg.AppEnv),
		)),
	}

	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OTLP exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}
	providerOpts = append(providerOpts, o.extra...)

	tp := sdktrace.NewTracerProvider(providerOpts...)
	if cfg.RegisterGlobal {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	}

	return &Bridge{
		provider: tp,
		tracer:   tp.Tracer(instrumentationName),
		log:      o.log,
		observer: o.observer,
	}, nil
}

// Report emits ev as a finished span. Units with a parent are attached to it
// through a remote span context carrying the parent's ID.
func (b *Bridge) Report(ev tracer.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("otel bridge failed to emit span", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"trace_id": ev.TraceID.String(),
				"unit_id":  ev.ID.String(),
			})
		}
	}()

	ctx := withEvent(context.Background(), &ev)
	if ev.HasParent() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    ev.TraceID,
			SpanID:     ev.ParentID,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		}))
	}

	kind := trace.SpanKindInternal
	if ev.Kind == tracer.KindTransaction {
		kind = trace.SpanKindServer
	}
	_, span := b.tracer.Start(ctx, ev.Name,
		trace.WithTimestamp(ev.Timestamp),
		trace.WithSpanKind(kind),
		trace.WithAttributes(attributes(ev)...),
	)

	end := ev.Timestamp.Add(ev.Duration)
	switch {
	case ev.Error != nil:
		span.RecordError(ev.Error.Err, trace.WithTimestamp(end))
		span.SetStatus(codes.Error, ev.Error.Message)
	case ev.Context != nil && ev.Context.Response.StatusCode >= 500:
		span.SetStatus(codes.Error, ev.Result)
	}
	span.End(trace.WithTimestamp(end))

	b.observer.ObserveOperation(observability.OperationContext{
		Component: observability.ComponentOTel,
		Operation: "export",
		Resource:  ev.Kind.String(),
		Duration:  ev.Duration,
	})
}

func attributes(ev tracer.Event) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("apm.kind", ev.Kind.String()),
		attribute.String("apm.agent_id", ev.AgentID),
		attribute.String("apm.naming_priority", ev.NamingPriority.String()),
	}
	if ev.Type != "" {
		attrs = append(attrs, attribute.String("apm.type", ev.Type))
	}
	if ev.Result != "" {
		attrs = append(attrs, attribute.String("apm.result", ev.Result))
	}
	if ev.Kind == tracer.KindSpan {
		attrs = append(attrs, attribute.String("apm.transaction_id", ev.TransactionID.String()))
	}
	if ev.Context == nil {
		return attrs
	}

	req, resp := ev.Context.Request, ev.Context.Response
	if req.Method != "" {
		attrs = append(attrs, semconv.HTTPMethodKey.String(req.Method))
	}
	if req.URL.Full != "" {
		attrs = append(attrs, semconv.HTTPURLKey.String(req.URL.Full))
	}
	if resp.StatusCode != 0 {
		attrs = append(attrs, semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
	}
	if ev.Context.User.Username != "" {
		attrs = append(attrs, semconv.EnduserIDKey.String(ev.Context.User.Username))
	}
	return attrs
}

// ForceFlush exports everything the batcher holds.
func (b *Bridge) ForceFlush(ctx context.Context) error {
	return b.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider.
func (b *Bridge) Shutdown(ctx context.Context) error {
	return b.provider.Shutdown(ctx)
}
