package queue

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Queue] created with [New].
type Option func(*options)

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// WithLogger injects a custom [slog.Logger]. Scheduling events are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithTracer records a span for every dispatched task.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// EnqueueOption is a functional option for [Queue.Enqueue].
type EnqueueOption func(*enqueueOpts)

type enqueueOpts struct {
	key string
}

// WithKey places the task in a coalescing group. An empty key is the same as no key.
func WithKey(key string) EnqueueOption {
	return func(opts *enqueueOpts) {
		opts.key = key
	}
}
