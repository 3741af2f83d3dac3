package emulator

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HandlerFunc is a http.Handler that returns an error.
type HandlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware defines a signature to chain HandlerFunc together.
type Middleware func(handler HandlerFunc) HandlerFunc

// router registers device endpoints on a ServeMux, wrapping each in the
// middleware stack and a request span.
type router struct {
	mux    *http.ServeMux
	mw     []Middleware
	logger *slog.Logger
	tracer trace.Tracer
}

func (rt *router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

func (rt *router) get(path string, handler HandlerFunc) {
	handler = wrap(rt.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := rt.startSpan(w, r)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.New().String()
		}

		v := values{
			TraceID: traceID,
			Now:     time.Now().UTC(),
		}

		r = r.WithContext(setValues(ctx, &v))

		if err := handler(r.Context(), w, r); err != nil {
			rt.logger.Error("emulator", "path", path, "trace_id", traceID, "error", err)
		}
	}

	rt.mux.HandleFunc(http.MethodGet+" "+path, h)
}

// startSpan continues a trace started by the caller, if any, and writes
// the span context back into the response headers.
func (rt *router) startSpan(w http.ResponseWriter, r *http.Request) (context.Context, trace.Span) {
	prop := otel.GetTextMapPropagator()

	ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := rt.tracer.Start(ctx, "emulator.handler")
	span.SetAttributes(attribute.String("path", r.RequestURI))

	prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

// wrap middleware around the handler and execute in order given.
func wrap(mw []Middleware, handler HandlerFunc) HandlerFunc {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}

type ctxKey int

const valuesKey ctxKey = 1

// values are shared across the middleware of one request.
type values struct {
	TraceID    string
	Now        time.Time
	StatusCode int
}

func setStatusCode(ctx context.Context, statusCode int) {
	if v, ok := ctx.Value(valuesKey).(*values); ok {
		v.StatusCode = statusCode
	}
}

func getValues(ctx context.Context) *values {
	v, ok := ctx.Value(valuesKey).(*values)
	if !ok {
		return &values{
			TraceID: uuid.Nil.String(),
			Now:     time.Now(),
		}
	}

	return v
}

func setValues(ctx context.Context, v *values) context.Context {
	return context.WithValue(ctx, valuesKey, v)
}
