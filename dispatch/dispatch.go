// Package dispatch provides the execution contexts used by hubs.
//
// A Serial is a hub's private critical section: every emission and every
// subscription mutation of one hub runs through it, so they are totally
// ordered. Two implementations are available:
//
//   - Direct: work runs on the submitting goroutine. An idle Direct runs the
//     work before Async returns; work submitted from inside a running task is
//     deferred until that task returns.
//   - Queue: a FIFO drained by a single goroutine that is started on demand
//     and exits when the queue is idle. Async returns after enqueue.
//
// Neither holds a lock while work runs, so work may submit more work to its
// own Serial.
//
// An Executor is the context a consumer asks callbacks to be delivered on.
// A Queue is an Executor with a non-blocking handoff; wrap it with Blocking
// to wait for each callback to finish.
//
// Work submitted to a Serial must not synchronously wait on the same Serial:
// Sync, Wait, or a Blocking executor over it, called from its own task,
// blocks forever.
package dispatch

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Serial runs work one item at a time, in submission order
type Serial interface {
	// Async submits fn. Depending on the implementation fn may have
	// already run when Async returns.
	Async(fn func())
	// Sync submits fn and waits for it to complete
	Sync(fn func())
	// Wait blocks until all work submitted so far has completed
	Wait()
}

// Executor runs a callback on a consumer-chosen context
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to an Executor
type ExecutorFunc func(fn func())

// Execute calls f(fn)
func (f ExecutorFunc) Execute(fn func()) {
	f(fn)
}

// Inline runs callbacks immediately on the delivering goroutine
var Inline Executor = ExecutorFunc(func(fn func()) { fn() })

type blocking struct {
	s Serial
}

func (b blocking) Execute(fn func()) {
	b.s.Sync(fn)
}

// Blocking returns an Executor that hands callbacks to s and waits for each
// to complete before returning.
func Blocking(s Serial) Executor {
	if s == nil {
		return Inline
	}
	return blocking{s: s}
}

var counter uint64

// NewID generates a new unique ID
func NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	}
	return strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
}

// Logger returns a logger with the given component name
func Logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
