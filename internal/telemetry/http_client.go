package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig describes an outbound client
type HTTPClientConfig struct {
	ServiceName string // external system, e.g. "publisher" or "google"
	Timeout     time.Duration
	Transport   http.RoundTripper
	// Provider defaults to the global tracer provider.
	Provider trace.TracerProvider
	// Propagate injects trace headers. Leave it off for third-party sites.
	Propagate bool
}

// NewInstrumentedHTTPClient returns a client whose requests each get a
// client span named "<service> <METHOD>".
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewTracingTransport(cfg),
	}
}

// NewTracingTransport wraps cfg.Transport, or http.DefaultTransport, with
// otelhttp client spans.
func NewTracingTransport(cfg HTTPClientConfig) http.RoundTripper {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s", cfg.ServiceName, r.Method)
		}),
		otelhttp.WithSpanOptions(
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("external.service", cfg.ServiceName)),
		),
	}
	if cfg.Provider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.Provider))
	}
	if !cfg.Propagate {
		// an empty composite injects nothing
		opts = append(opts, otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator()))
	}
	return otelhttp.NewTransport(base, opts...)
}
