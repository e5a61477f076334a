package propagate

import (
	"sync"
	"time"
)

// Recorder collects the states a Subscriber receives.
// Useful for asserting delivery order in tests.
//
// Example:
//
//	rec := propagate.NewRecorder[int, error]()
//	sub := rec.Attach(pub.NewSubscriber())
//	pub.Publish(1)
//	rec.WaitFor(1, time.Second)
type Recorder[T any, E error] struct {
	mu     sync.Mutex
	states []StreamState[T, E]
}

// NewRecorder creates an empty recorder
func NewRecorder[T any, E error]() *Recorder[T, E] {
	return &Recorder[T, E]{}
}

// Attach registers the recorder on sub and returns sub
func (r *Recorder[T, E]) Attach(sub *Subscriber[T, E]) *Subscriber[T, E] {
	return sub.OnAny(r.Record)
}

// Record appends a state, it can be used directly as an OnAny callback
func (r *Recorder[T, E]) Record(state StreamState[T, E]) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

// States returns a copy of all recorded states
func (r *Recorder[T, E]) States() []StreamState[T, E] {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]StreamState[T, E], len(r.states))
	copy(result, r.states)
	return result
}

// Data returns the recorded data payloads in order
func (r *Recorder[T, E]) Data() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []T
	for _, s := range r.states {
		if v, ok := s.Data(); ok {
			result = append(result, v)
		}
	}
	return result
}

// Errors returns the recorded error payloads in order
func (r *Recorder[T, E]) Errors() []E {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []E
	for _, s := range r.states {
		if err, ok := s.Err(); ok {
			result = append(result, err)
		}
	}
	return result
}

// Cancellations returns the number of recorded cancellations
func (r *Recorder[T, E]) Cancellations() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, s := range r.states {
		if s.IsCancelled() {
			count++
		}
	}
	return count
}

// Count returns the number of recorded states
func (r *Recorder[T, E]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Reset clears all recorded states
func (r *Recorder[T, E]) Reset() {
	r.mu.Lock()
	r.states = nil
	r.mu.Unlock()
}

// WaitFor waits until at least n states were recorded or timeout is reached.
// Returns true if the expected count was reached, false on timeout.
func (r *Recorder[T, E]) WaitFor(n int, timeout time.Duration) bool {
	return waitFor(func() bool { return r.Count() >= n }, timeout)
}

// StreamRecorder collects the states a StreamSubscriber callback receives
type StreamRecorder[D, L any] struct {
	mu     sync.Mutex
	states []ReplayState[D, L]
}

// NewStreamRecorder creates an empty recorder
func NewStreamRecorder[D, L any]() *StreamRecorder[D, L] {
	return &StreamRecorder[D, L]{}
}

// Callback returns a callback for use with OnNext
func (r *StreamRecorder[D, L]) Callback() StreamCallback[D, L] {
	return func(state ReplayState[D, L]) {
		r.mu.Lock()
		r.states = append(r.states, state)
		r.mu.Unlock()
	}
}

// States returns a copy of all recorded states
func (r *StreamRecorder[D, L]) States() []ReplayState[D, L] {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]ReplayState[D, L], len(r.states))
	copy(result, r.states)
	return result
}

// Count returns the number of recorded states
func (r *StreamRecorder[D, L]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// WaitFor waits until at least n states were recorded or timeout is reached
func (r *StreamRecorder[D, L]) WaitFor(n int, timeout time.Duration) bool {
	return waitFor(func() bool { return r.Count() >= n }, timeout)
}

func waitFor(done func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if done() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
