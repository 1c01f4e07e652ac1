// Package tracing wraps guarded signal operations in OpenTelemetry spans.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/beacon-dev/beacon/pkg/beacon"
)

// Default tracer name for Beacon applications.
const defaultTracerName = "beacon"

// Runner is the part of a signal the tracer drives. *beacon.Signal[T]
// satisfies it for any T.
type Runner interface {
	ID() uint64
	Name() string
	Status() beacon.Status
	Run(ctx context.Context, op func(context.Context) error, opts ...beacon.RunOption) error
}

// Config configures the tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "beacon").
	TracerName string

	// SpanName builds the span name for an operation.
	// If nil, spans are named "beacon.run <signal name>".
	SpanName func(sig Runner) string

	// Filter determines which operations to trace.
	// Return true to trace the operation, false to run it untraced.
	// If nil, all operations are traced.
	Filter func(sig Runner) bool

	// AttributeExtractor extracts custom attributes from the signal.
	// Called for each traced operation.
	AttributeExtractor func(sig Runner) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures the tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithSpanName sets a custom span name builder.
func WithSpanName(fn func(sig Runner) string) Option {
	return func(c *Config) {
		c.SpanName = fn
	}
}

// WithFilter sets a filter function for operations.
func WithFilter(filter func(sig Runner) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(sig Runner) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

func defaultTracingConfig() Config {
	return Config{
		TracerName: defaultTracerName,
	}
}

// Tracer runs guarded operations inside OpenTelemetry spans.
//
// Each traced operation:
//   - Creates a span carrying the signal name, ID, and terminal status
//   - Threads the span context into the operation for downstream calls
//   - Records errors and sets span status
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before running operations:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config Config
}

// New creates a Tracer resolving its tracer from the global provider.
func New(opts ...Option) *Tracer {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// Run drives sig.Run under a span. The returned error is the operation
// error exactly as sig.Run would report it.
func (t *Tracer) Run(ctx context.Context, sig Runner, op func(context.Context) error, opts ...beacon.RunOption) error {
	if t.config.Filter != nil && !t.config.Filter(sig) {
		return sig.Run(ctx, op, opts...)
	}

	attrs := []attribute.KeyValue{
		attribute.String("beacon.signal_name", sig.Name()),
		attribute.Int64("beacon.signal_id", int64(sig.ID())),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(sig)...)
	}

	spanCtx, span := t.config.tracer.Start(
		ctx,
		t.spanName(sig),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := sig.Run(spanCtx, op, opts...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("beacon.terminal_status", sig.Status().String()))

	return err
}

func (t *Tracer) spanName(sig Runner) string {
	if t.config.SpanName != nil {
		return t.config.SpanName(sig)
	}
	return fmt.Sprintf("beacon.run %s", sig.Name())
}
