package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines how often a single device host may be contacted.
// One token is refilled every Every, the bucket holds Burst tokens.
type Config struct {
	Every time.Duration
	Burst int
}

// Validate checks that both values are usable by a limiter.
func (c Config) Validate() error {
	if c.Every <= 0 || c.Burst <= 0 {
		return fmt.Errorf("every[%s] and burst[%d] %w", c.Every, c.Burst, ErrMustNotBeZero)
	}

	return nil
}

// throttle is an http.RoundTripper keeping one time/rate token
// bucket per request host.
type throttle struct {
	cfg   Config
	next  http.RoundTripper
	logFn func() *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound requests
// per host. logFn lazily resolves the logger at request time; a nil-returning
// logFn disables the exhaustion logs.
func NewRoundTripper(cfg Config, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	t := &throttle{
		cfg:      cfg,
		next:     next,
		logFn:    logFn,
		limiters: make(map[string]*rate.Limiter),
	}

	return t, nil
}

func (t *throttle) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.cfg.Every), t.cfg.Burst)
		t.limiters[host] = l
	}

	return l
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	limiter := t.limiter(r.URL.Host)

	var waited time.Duration
	logger := t.logFn()
	if logger != nil && limiter.Tokens() < 1 {
		logger.Info("device throttle engaged", "host", r.URL.Host, "every", t.cfg.Every.String(), "burst", t.cfg.Burst, "path", r.URL.Path)

		defer func() {
			logger.Info("device throttle released", "host", r.URL.Host, "waited", waited.String())
		}()
	}

	start := time.Now()

	err := limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
