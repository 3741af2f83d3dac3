// Package queue provides a single-flight, rate-limited task scheduler
// for talking to resource-constrained devices.
//
// # Usage
//
// Create a [Queue] with a minimum spacing between dispatches and
// enqueue work:
//
//	q, err := queue.New(time.Second)
//	r := q.Enqueue(func() (any, error) {
//		return fetchStatus()
//	})
//	v, err := r.Wait(ctx)
//
// At most one task runs at a time. A task is dispatched only once the
// configured interval has passed since the previous task settled.
//
// # Coalescing
//
// Tasks enqueued with [WithKey] replace a not-yet-dispatched task that
// holds the same key. The replaced task never runs, and every caller
// under that key receives the outcome of the task that does:
//
//	q.Enqueue(setLimit(10), queue.WithKey("limit1"))
//	q.Enqueue(setLimit(16), queue.WithKey("limit1")) // only this one is sent
//
// Once a task has been selected for dispatch its key is released, so a
// later submission under the same key queues a new, independent task.
//
// # Reset
//
// [Queue.Reset] fails every waiting caller with [ErrReset]. A task that
// is already running is not interrupted.
package queue
