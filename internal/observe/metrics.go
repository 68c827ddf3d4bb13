// Package observe provides the observability primitives shared by every
// Dictsy surface: OpenTelemetry metrics, tracing, trace-aware structured
// logging and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed to
// Prometheus by [InitProvider]. [DefaultMetrics] returns a package-level
// instance bound to the global meter provider; tests should build their own
// with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/MrWong99/dictsy"

// Metrics holds the application's metric instruments. All fields are safe
// for concurrent use.
type Metrics struct {
	// Checks counts judged answers. Attributes: verdict, surface.
	Checks metric.Int64Counter

	// Nexts counts problem advances. Attribute: surface.
	Nexts metric.Int64Counter

	// Reveals counts "show answer" actions. Attribute: surface.
	Reveals metric.Int64Counter

	// TTSDuration tracks how long one utterance takes to synthesize.
	TTSDuration metric.Float64Histogram

	// ProviderRequests counts provider calls. Attributes: provider, kind, status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed provider calls. Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// BreakerTransitions counts circuit breaker state changes.
	// Attributes: provider, from, to.
	BreakerTransitions metric.Int64Counter

	// VoicesAvailable is the size of the locale-filtered voice catalogue.
	VoicesAvailable metric.Int64Gauge

	// HTTPRequestDuration tracks API latency. Attributes: method, route, status.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds. Speech synthesis of a
// single sentence usually lands between 100ms and a few seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Checks, err = m.Int64Counter("dictsy.check.total",
		metric.WithDescription("Judged answers by verdict and surface."),
	); err != nil {
		return nil, err
	}
	if met.Nexts, err = m.Int64Counter("dictsy.next.total",
		metric.WithDescription("Problems advanced to by surface."),
	); err != nil {
		return nil, err
	}
	if met.Reveals, err = m.Int64Counter("dictsy.reveal.total",
		metric.WithDescription("Reference sentences revealed after an incorrect answer."),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("dictsy.tts.duration",
		metric.WithDescription("Latency of synthesizing one sentence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("dictsy.provider.requests",
		metric.WithDescription("Provider calls by provider, kind and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("dictsy.provider.errors",
		metric.WithDescription("Provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.BreakerTransitions, err = m.Int64Counter("dictsy.breaker.transitions",
		metric.WithDescription("Circuit breaker state changes."),
	); err != nil {
		return nil, err
	}
	if met.VoicesAvailable, err = m.Int64Gauge("dictsy.voices.available",
		metric.WithDescription("Voices available for the configured locale."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("dictsy.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first use
// from [otel.GetMeterProvider]. It panics if an instrument cannot be created.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCheck counts one judged answer.
func (m *Metrics) RecordCheck(ctx context.Context, verdict, surface string) {
	m.Checks.Add(ctx, 1, metric.WithAttributes(Attr("verdict", verdict), Attr("surface", surface)))
}

// RecordNext counts one advance to a new problem.
func (m *Metrics) RecordNext(ctx context.Context, surface string) {
	m.Nexts.Add(ctx, 1, metric.WithAttributes(Attr("surface", surface)))
}

// RecordReveal counts one revealed reference.
func (m *Metrics) RecordReveal(ctx context.Context, surface string) {
	m.Reveals.Add(ctx, 1, metric.WithAttributes(Attr("surface", surface)))
}

// RecordProviderRequest counts one provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider),
		Attr("kind", kind),
		Attr("status", status),
	))
}

// RecordProviderError counts one provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider),
		Attr("kind", kind),
	))
}

// RecordSynthesis records the outcome and latency of one TTS request.
func (m *Metrics) RecordSynthesis(ctx context.Context, provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, "tts")
	}
	m.RecordProviderRequest(ctx, provider, "tts", status)
	m.TTSDuration.Record(ctx, d.Seconds(), metric.WithAttributes(Attr("provider", provider)))
}

// RecordBreakerTransition counts one circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, provider, from, to string) {
	m.BreakerTransitions.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider),
		Attr("from", from),
		Attr("to", to),
	))
}

// SetVoicesAvailable publishes the current voice catalogue size.
func (m *Metrics) SetVoicesAvailable(ctx context.Context, n int) {
	m.VoicesAvailable.Record(ctx, int64(n))
}
