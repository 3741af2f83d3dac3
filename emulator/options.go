package emulator

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures the handler built by [Handler].
type Option func(*options)

type options struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	latency time.Duration
}

// WithLogger sets the logger used for request and error logs.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithTracer starts a span for every request.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithLatency delays every answer by d, like a device busy polling its
// Modbus.
func WithLatency(d time.Duration) Option {
	return func(opts *options) {
		opts.latency = d
	}
}
