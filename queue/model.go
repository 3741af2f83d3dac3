package queue

import (
	"errors"
)

var (
	// ErrReset is delivered to every caller whose task was still waiting
	// when [Queue.Reset] was called.
	ErrReset = errors.New("queue reset")
	// ErrNegativeInterval is returned by [New] for an interval below zero.
	ErrNegativeInterval = errors.New("interval must not be negative")
	// ErrNilTask settles a [Result] immediately when Enqueue is given a nil task.
	ErrNilTask = errors.New("task must not be nil")
	// ErrTaskPanicked wraps the recovered value of a task that panicked.
	ErrTaskPanicked = errors.New("task panicked")
	// ErrUnexpectedType is returned by [Await] when the settled value
	// cannot be asserted to the requested type.
	ErrUnexpectedType = errors.New("unexpected result type")
)

// Task is a bound unit of work. It must carry its own timeout.
type Task func() (any, error)

// State describes what the scheduler is currently doing.
type State int

const (
	// StateIdle means nothing is running and no cooldown is pending.
	StateIdle State = iota
	// StateWaiting means a task has been selected and waits for the cooldown.
	StateWaiting
	// StateDispatching means a task is running.
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// entry is one unit of queued work plus every caller waiting on it.
type entry struct {
	id      string
	key     string
	task    Task
	waiters []*Result
}

func (e *entry) settle(val any, err error) {
	for _, w := range e.waiters {
		w.settle(val, err)
	}
}
