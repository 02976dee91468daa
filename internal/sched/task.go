// Package sched implements the worker pool scheduler: a bounded set of
// execution units, a FIFO task queue with latest-wins coalescing,
// heartbeat keep-alive, and idle-unit reclamation.
//
// All pool state is owned by a single dispatch loop; units communicate
// with it only by message, so no lock guards the queue or unit table.
package sched

import (
	"errors"
	"sync/atomic"
)

// Sentinel errors surfaced through task results.
var (
	// ErrSuperseded resolves a queued task that was replaced by a newer
	// submission sharing its coalescing key.
	ErrSuperseded = errors.New("sched: superseded by newer task")

	// ErrShuttingDown resolves every queued and in-flight task when the
	// pool shuts down, and rejects submissions afterwards.
	ErrShuttingDown = errors.New("sched: shutting down")
)

// TaskState tracks a task through its lifecycle.
type TaskState int32

const (
	// TaskQueued means the task is waiting in the FIFO queue.
	TaskQueued TaskState = iota

	// TaskDispatched means the task is running on a unit. Dispatched
	// tasks always run to completion; they are never dropped.
	TaskDispatched

	// TaskCompleted means the task finished and resolved its waiter.
	TaskCompleted

	// TaskFailed means the task's run returned an error or panicked.
	TaskFailed

	// TaskSuperseded means the task was dropped from the queue in favor
	// of a newer task with the same coalescing key.
	TaskSuperseded
)

// Result is the terminal outcome delivered to a task's waiter.
type Result struct {
	Value any
	Err   error
}

// Task is one schedulable unit of work.
//
// Key is the coalescing key: when a new task with the same key is
// submitted, any still-queued older task with that key is dropped
// (latest wins). An empty key disables coalescing for the task.
type Task struct {
	ID  string
	Key string
	Run func() (any, error)

	state atomic.Int32
	done  chan Result
}

// NewTask creates a task ready for submission.
func NewTask(id, key string, run func() (any, error)) *Task {
	return &Task{
		ID:   id,
		Key:  key,
		Run:  run,
		done: make(chan Result, 1),
	}
}

// Done returns the channel that delivers the task's single Result.
func (t *Task) Done() <-chan Result { return t.done }

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState { return TaskState(t.state.Load()) }

// resolve transitions the task to its terminal state and delivers the
// result. Called only from the dispatch loop, exactly once per task.
func (t *Task) resolve(state TaskState, value any, err error) {
	t.state.Store(int32(state))
	t.done <- Result{Value: value, Err: err}
}
