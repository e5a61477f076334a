package dispatch

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// options holds configuration for a serial context (unexported)
type options struct {
	logger *slog.Logger
}

// Option configures a Queue or a Direct
type Option func(*options)

func newOptions(label string, opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = Logger("dispatch>" + label)
	}
	return o
}

// WithLogger sets the logger used to report recovered panics
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Queue is a serial FIFO execution context.
//
// Submitted work is run by a single goroutine which is started when work
// arrives and exits once the queue drains, so an idle Queue holds no
// goroutine and needs no Close.
type Queue struct {
	label   string
	logger  *slog.Logger
	mu      sync.Mutex
	idle    *sync.Cond
	tasks   []func()
	running bool
}

// NewQueue creates a serial queue. The label is suffixed with a unique ID.
func NewQueue(label string, opts ...Option) *Queue {
	label = fmt.Sprintf("%s-%s", label, NewID())
	o := newOptions(label, opts...)

	q := &Queue{
		label:  label,
		logger: o.logger,
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Label returns the queue label
func (q *Queue) Label() string {
	return q.label
}

// Async appends fn to the queue and returns without waiting
func (q *Queue) Async(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	if !q.running {
		q.running = true
		go q.drain()
	}
	q.mu.Unlock()
}

// Sync appends fn to the queue and waits until it has run
func (q *Queue) Sync(fn func()) {
	if fn == nil {
		return
	}
	done := make(chan struct{})
	q.Async(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Execute implements Executor with a non-blocking handoff
func (q *Queue) Execute(fn func()) {
	q.Async(fn)
}

// Wait blocks until the queue is drained
func (q *Queue) Wait() {
	q.mu.Lock()
	for q.running {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// Pending returns the number of queued items not yet started
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			q.tasks = nil
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		run(q.logger, q.label, fn)
	}
}

// run executes fn, a panic must not stop the drain loop
func run(logger *slog.Logger, label string, fn func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("serial task panic recovered",
				"serial", label,
				"error", err,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Compile-time interface checks
var _ Serial = (*Direct)(nil)
var _ Serial = (*Queue)(nil)
var _ Executor = (*Queue)(nil)
