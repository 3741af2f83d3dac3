package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Queue serializes tasks, dispatching at most one at a time and
// spacing dispatches by at least the configured interval.
type Queue struct {
	interval time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer

	mu           sync.Mutex
	backlog      []*entry
	keyed        map[string]*entry // backlog entries by key
	dispatching  bool
	lastDispatch time.Time
	timer        *time.Timer
	armed        *entry // selected, waiting on timer
}

// New creates a Queue that waits at least interval between the
// settlement of one task and the dispatch of the next.
func New(interval time.Duration, optFns ...Option) (*Queue, error) {
	if interval < 0 {
		return nil, fmt.Errorf("interval[%s]: %w", interval, ErrNegativeInterval)
	}

	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	q := &Queue{
		interval: interval,
		logger:   opts.logger,
		tracer:   opts.tracer,
		keyed:    make(map[string]*entry),
	}

	return q, nil
}

// Interval returns the minimum spacing between dispatches.
func (q *Queue) Interval() time.Duration {
	return q.interval
}

// Enqueue adds task to the backlog and returns the caller's Result.
//
// If a key is given via [WithKey] and a waiting entry already holds it,
// task replaces that entry's task in place and the caller joins its
// waiters instead.
func (q *Queue) Enqueue(task Task, optFns ...EnqueueOption) *Result {
	var opts enqueueOpts
	for _, opt := range optFns {
		opt(&opts)
	}

	r := newResult()
	if task == nil {
		r.settle(nil, ErrNilTask)
		return r
	}

	q.mu.Lock()
	if e, ok := q.keyed[opts.key]; ok && opts.key != "" {
		e.task = task
		e.waiters = append(e.waiters, r)
		q.mu.Unlock()

		q.logger.Debug("queue task coalesced", "id", e.id, "key", opts.key, "waiters", len(e.waiters))
		q.advance()

		return r
	}

	e := &entry{
		id:      uuid.NewString(),
		key:     opts.key,
		task:    task,
		waiters: []*Result{r},
	}
	q.backlog = append(q.backlog, e)
	if e.key != "" {
		q.keyed[e.key] = e
	}
	size := len(q.backlog)
	q.mu.Unlock()

	q.logger.Debug("queue task enqueued", "id", e.id, "key", e.key, "backlog", size)
	q.advance()

	return r
}

// Reset fails every waiting caller with [ErrReset] and cancels a pending
// cooldown timer. A task that is already running still completes and
// notifies its callers.
func (q *Queue) Reset() {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}

	var cancelled []*entry
	if q.armed != nil {
		cancelled = append(cancelled, q.armed)
		q.armed = nil
	}
	cancelled = append(cancelled, q.backlog...)

	q.backlog = nil
	clear(q.keyed)
	q.lastDispatch = time.Time{}
	q.dispatching = false
	q.mu.Unlock()

	for _, e := range cancelled {
		e.key = ""
		e.settle(nil, ErrReset)
	}

	q.logger.Debug("queue reset", "cancelled", len(cancelled))
}

// Len returns the number of entries that have not been dispatched yet.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.backlog)
	if q.armed != nil {
		n++
	}

	return n
}

// State reports the scheduler's current state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.armed != nil:
		return StateWaiting
	case q.dispatching:
		return StateDispatching
	default:
		return StateIdle
	}
}

// advance selects the head of the backlog for dispatch, either right
// away or once the cooldown since the last settlement has passed.
func (q *Queue) advance() {
	q.mu.Lock()
	if q.dispatching || q.armed != nil || len(q.backlog) == 0 {
		q.mu.Unlock()
		return
	}

	e := q.backlog[0]
	q.backlog[0] = nil
	q.backlog = q.backlog[1:]
	if e.key != "" {
		delete(q.keyed, e.key)
		e.key = ""
	}
	q.dispatching = true

	wait := q.interval - time.Since(q.lastDispatch)
	if wait <= 0 {
		q.mu.Unlock()
		go q.dispatch(e)
		return
	}

	q.armed = e
	q.timer = time.AfterFunc(wait, func() { q.fire(e) })
	q.mu.Unlock()

	q.logger.Debug("queue cooldown", "id", e.id, "wait", wait.String())
}

// fire runs when the cooldown timer for e expires.
func (q *Queue) fire(e *entry) {
	q.mu.Lock()
	if q.armed != e { // Reset got there first.
		q.mu.Unlock()
		return
	}
	q.armed = nil
	q.timer = nil
	q.mu.Unlock()

	q.dispatch(e)
}

// dispatch runs e's current task and settles every waiter with its outcome.
func (q *Queue) dispatch(e *entry) {
	start := time.Now()
	val, err := q.run(e)

	q.mu.Lock()
	q.lastDispatch = time.Now()
	q.mu.Unlock()

	q.logger.Debug("queue task settled", "id", e.id, "waiters", len(e.waiters), "took", time.Since(start).String(), "error", err)
	e.settle(val, err)

	q.mu.Lock()
	q.dispatching = false
	q.mu.Unlock()

	q.advance()
}

func (q *Queue) run(e *entry) (val any, err error) {
	_, span := q.tracer.Start(context.Background(), "queue.dispatch")
	span.SetAttributes(
		attribute.String("queue.entry_id", e.id),
		attribute.Int("queue.waiters", len(e.waiters)),
	)

	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return e.task()
}
