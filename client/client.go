package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jb-io/wbec-client/client/throttle"
	"github.com/jb-io/wbec-client/queue"
)

// Client sends requests to a single wbec device. All requests pass
// through one [queue.Queue], so the device never sees more than one
// request at a time and requests are spaced by the request interval.
type Client struct {
	c       *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	queue   *queue.Queue
	scheme  string
	host    string
	timeout time.Duration
}

// New builds a Client for the device reachable at host ("host" or "host:port").
func New(host string, optFns ...Option) (*Client, error) {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return nil, ErrMissingHost
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:       &http.Client{},
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("no-op tracer"),
		scheme:  "http",
		host:    host,
		timeout: DefaultTimeout,
	}

	if opts.client != nil {
		client.c = opts.client
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.scheme != "" {
		client.scheme = opts.scheme
	}
	if opts.timeout != nil {
		client.timeout = *opts.timeout
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	interval := DefaultRequestInterval
	if opts.interval != nil {
		interval = *opts.interval
	}

	q, err := queue.New(interval, queue.WithLogger(client.logger), queue.WithTracer(client.tracer))
	if err != nil {
		return nil, fmt.Errorf("configuring request queue: %w", err)
	}
	client.queue = q

	return client, nil
}

// Host returns the base URL of the device.
func (c *Client) Host() string {
	return c.scheme + "://" + c.host
}

// ClientReset drops every request that has not been sent yet. Their
// callers fail with [queue.ErrReset]. A request already on the wire
// still completes.
func (c *Client) ClientReset() {
	c.queue.Reset()
}

// Pending returns the number of requests waiting to be sent.
func (c *Client) Pending() int {
	return c.queue.Len()
}

// Do will fire the request, and write response to the given dest object if any.
// It bypasses the request queue; API methods use it from inside queued tasks.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return err
		}
	}

	doFunc := func(resp *http.Response) error {
		if settings.responseBody != nil {
			if err := json.NewDecoder(resp.Body).Decode(settings.responseBody); err != nil {
				return fmt.Errorf("decoding body: %w", err)
			}
		}

		return nil
	}

	return c.exec(req, expCode, doFunc)
}

// exec runs the request and injected function on success after validating the expected status code.
func (c *Client) exec(req *http.Request, expCode int, fn execFn) error {
	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	defer func() {
		if _, err = io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err = resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != expCode {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        ErrUnexpectedStatusCode,
		}
	}

	if err := fn(resp); err != nil {
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

// get queues a GET of path under key and decodes the device's JSON answer into a T.
func get[T any](ctx context.Context, c *Client, path string, query map[string]string, key string) (*T, error) {
	u := URL(c.scheme, c.host, path, WithQueryStrings(query))

	task := func() (any, error) {
		var dest T
		if err := c.send(ctx, u, key, WithDestination(&dest)); err != nil {
			return nil, err
		}

		return &dest, nil
	}

	return queue.Await[*T](ctx, c.queue.Enqueue(task, queue.WithKey(key)))
}

// send executes a single GET against the device. It runs inside a queued
// task, so the caller's cancellation is dropped: a dispatched request is
// bounded by the client timeout only.
func (c *Client) send(ctx context.Context, u *url.URL, key string, opts ...DoOption) (err error) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "wbec.request")
	span.SetAttributes(
		attribute.String("wbec.path", u.Path),
		attribute.String("wbec.query", u.RawQuery),
		attribute.String("wbec.key", key),
	)

	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		c.logger.Debug("wbec request", "path", u.Path, "query", u.RawQuery, "key", key, "took", time.Since(start).String(), "error", err)
	}()

	req, err := Request(ctx, u, http.MethodGet)
	if err != nil {
		return err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return c.Do(req, http.StatusOK, opts...)
}

// Request instantiates an *http.Request with the provided information.
func Request(ctx context.Context, reqURL *url.URL, method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return req, nil
}

// URL creates a url.URL for use in Request.
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if len(settings.queryStrings) > 0 {
		queryParams := url.Values{}
		for k, v := range settings.queryStrings {
			queryParams.Add(k, v)
		}

		endpoint.RawQuery = queryParams.Encode()
	}

	return &endpoint
}
