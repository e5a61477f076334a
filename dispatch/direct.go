package dispatch

import (
	"fmt"
	"log/slog"
	"sync"
)

// Direct is a Serial that runs work on the goroutine submitting it.
//
// The first goroutine to submit work to an idle Direct becomes its drainer:
// it runs its own work and everything submitted meanwhile, in submission
// order, before Async returns. Work submitted while a drainer is active,
// from another goroutine or from inside a running task, is appended and
// returns at once; the drainer runs it after the current task.
//
// No lock is held while work runs, so a task may submit to the same Direct
// without blocking. Sync and Wait from inside a running task still block
// forever, they wait on the drainer that is calling them.
type Direct struct {
	label    string
	logger   *slog.Logger
	mu       sync.Mutex
	idle     *sync.Cond
	tasks    []func()
	draining bool
}

// NewDirect creates a direct serial context
func NewDirect(label string, opts ...Option) *Direct {
	label = fmt.Sprintf("%s-%s", label, NewID())
	o := newOptions(label, opts...)

	d := &Direct{
		label:  label,
		logger: o.logger,
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Label returns the context label
func (d *Direct) Label() string {
	return d.label
}

// Async submits fn. When no drainer is active fn, and anything submitted
// while it runs, has completed when Async returns.
func (d *Direct) Async(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.tasks = append(d.tasks, fn)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	d.drain()
}

// Sync submits fn and waits until it has run.
// It must not be called from a task running on d.
func (d *Direct) Sync(fn func()) {
	if fn == nil {
		return
	}
	done := make(chan struct{})
	d.Async(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Wait blocks until no drainer is active.
// It must not be called from a task running on d.
func (d *Direct) Wait() {
	d.mu.Lock()
	for d.draining {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Pending returns the number of submitted tasks not yet started
func (d *Direct) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *Direct) drain() {
	for {
		d.mu.Lock()
		if len(d.tasks) == 0 {
			d.draining = false
			d.tasks = nil
			d.idle.Broadcast()
			d.mu.Unlock()
			return
		}
		fn := d.tasks[0]
		d.tasks[0] = nil
		d.tasks = d.tasks[1:]
		d.mu.Unlock()

		run(d.logger, d.label, fn)
	}
}
