package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"runtime/debug"
	"time"
)

// Logger logs the start and completion of every request.
func Logger(log *slog.Logger) Middleware {
	m := func(handler HandlerFunc) HandlerFunc {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := getValues(ctx)

			uri := r.URL.Path
			if r.URL.RawQuery != "" {
				uri = fmt.Sprintf("%s?%s", uri, r.URL.RawQuery)
			}

			log.Info("request started", "method", r.Method, "path", uri, "remoteaddr", r.RemoteAddr, "trace_id", v.TraceID)

			err := handler(ctx, w, r)

			log.Info("request completed", "method", r.Method, "path", uri, "statusCode", v.StatusCode, "since", time.Since(v.Now).String(), "trace_id", v.TraceID)

			return err
		}

		return h
	}

	return m
}

// Errors answers errors coming out of the call chain. Validation errors
// become 422, an *Error keeps its code, anything else is a 500 whose
// message is hidden from the caller.
func Errors(log *slog.Logger) Middleware {
	m := func(handler HandlerFunc) HandlerFunc {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			if fieldErr, ok := errors.AsType[FieldErrors](err); ok {
				return respondJSON(ctx, w, http.StatusUnprocessableEntity, fieldErr)
			}

			appErr, ok := errors.AsType[*Error](err)
			if !ok {
				appErr = newInternal(err)
			}

			reqLog := log.With("trace_id", getValues(ctx).TraceID)
			reqLog.Error(err.Error(), "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))

			if appErr.internal {
				appErr.Message = http.StatusText(appErr.Code)
			}

			return respondJSON(ctx, w, appErr.Code, appErr)
		}

		return h
	}

	return m
}

// Panics recovers from panics if they occur.
func Panics() Middleware {
	m := func(handler HandlerFunc) HandlerFunc {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(debug.Stack()))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// probe records the request on dev and holds it for latency, so that
// overlapping requests show up in [Device.MaxConcurrent].
func probe(dev *Device, latency time.Duration) Middleware {
	m := func(handler HandlerFunc) HandlerFunc {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			leave := dev.enter(r.URL.RequestURI())
			defer leave()

			if latency > 0 {
				timer := time.NewTimer(latency)
				defer timer.Stop()

				select {
				case <-timer.C:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
