// Package telemetry wires OpenTelemetry tracing and metrics for stepchain.
// Spans are opened around pipeline runs, agent invocations and gateway calls;
// counters track model calls, recorded steps and loop outcomes. Without
// InitTracing the global no-op providers are used.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/hupe1980/stepchain"

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer { return otel.Tracer(instrumentationName) }

// InitTracing installs a global tracer provider exporting spans to w as JSON.
// The returned function flushes and shuts the provider down.
func InitTracing(w io.Writer, pretty bool) (func(context.Context) error, error) {
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Metrics records reasoning-loop counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	modelCalls    metric.Int64Counter
	modelFailures metric.Int64Counter
	callDuration  metric.Float64Histogram
	steps         metric.Int64Counter
	outcomes      metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFromMeter(otel.Meter(instrumentationName))
}

// NewMetricsFromMeter creates the instruments on the given meter.
func NewMetricsFromMeter(meter metric.Meter) (*Metrics, error) {
	modelCalls, err := meter.Int64Counter(
		"stepchain.model.calls",
		metric.WithDescription("Total number of model gateway calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	modelFailures, err := meter.Int64Counter(
		"stepchain.model.failures",
		metric.WithDescription("Model gateway calls that returned no usable reply"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callDuration, err := meter.Float64Histogram(
		"stepchain.model.duration",
		metric.WithDescription("Duration of model gateway calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	steps, err := meter.Int64Counter(
		"stepchain.agent.steps",
		metric.WithDescription("Reasoning steps recorded"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	outcomes, err := meter.Int64Counter(
		"stepchain.agent.outcomes",
		metric.WithDescription("Agent invocations by terminal outcome"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		modelCalls:    modelCalls,
		modelFailures: modelFailures,
		callDuration:  callDuration,
		steps:         steps,
		outcomes:      outcomes,
	}, nil
}

// RecordModelCall records one gateway call made on behalf of agent.
func (m *Metrics) RecordModelCall(ctx context.Context, agent string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("agent.name", agent))
	m.modelCalls.Add(ctx, 1, attrs)
	m.callDuration.Record(ctx, dur.Seconds(), attrs)
	if err != nil {
		m.modelFailures.Add(ctx, 1, attrs)
	}
}

// RecordStep records one parsed step.
func (m *Metrics) RecordStep(ctx context.Context, agent string) {
	if m == nil {
		return
	}
	m.steps.Add(ctx, 1, metric.WithAttributes(attribute.String("agent.name", agent)))
}

// RecordOutcome records the terminal state of an agent invocation.
func (m *Metrics) RecordOutcome(ctx context.Context, agent, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent.name", agent),
		attribute.String("outcome", outcome),
	))
}
