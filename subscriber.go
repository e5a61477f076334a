package propagate

import (
	"log/slog"
	"sync"

	"github.com/rbaliyan/propagate/dispatch"
	"github.com/rbaliyan/propagate/internal/callbacks"
)

// Subscriber is the consumer end of a Publisher.
//
// Callbacks registered with OnData, OnError, OnCancelled and OnAny are
// cumulative: each call adds a callback, none replaces another. For every
// state the matching per-kind callbacks run first, then the OnAny
// callbacks, all in registration order. After the cancelled state the
// subscriber ignores anything else it is sent.
//
// The subscriber must be kept referenced for as long as it should receive
// states; the publisher only tracks it weakly.
type Subscriber[T any, E error] struct {
	id       string
	logger   *slog.Logger
	recovery bool

	mu          sync.Mutex
	onData      *callbacks.List[func(T)]
	onError     *callbacks.List[func(E)]
	onCancelled *callbacks.List[func()]
	onAny       *callbacks.List[func(StreamState[T, E])]
	executor    dispatch.Executor
	canceller   func(*Subscriber[T, E])
	cancelled   bool
}

func newSubscriber[T any, E error](logger *slog.Logger, recovery bool) *Subscriber[T, E] {
	id := NewID()
	return &Subscriber[T, E]{
		id:          id,
		logger:      logger.With("subscriber", id),
		recovery:    recovery,
		onData:      callbacks.New[func(T)](),
		onError:     callbacks.New[func(E)](),
		onCancelled: callbacks.New[func()](),
		onAny:       callbacks.New[func(StreamState[T, E])](),
	}
}

// ID returns the subscriber ID
func (s *Subscriber[T, E]) ID() string {
	return s.id
}

// OnData registers a callback for data states
func (s *Subscriber[T, E]) OnData(fn func(T)) *Subscriber[T, E] {
	if fn != nil {
		s.mu.Lock()
		if !s.cancelled {
			s.onData.Append(fn)
		}
		s.mu.Unlock()
	}
	return s
}

// OnError registers a callback for error states
func (s *Subscriber[T, E]) OnError(fn func(E)) *Subscriber[T, E] {
	if fn != nil {
		s.mu.Lock()
		if !s.cancelled {
			s.onError.Append(fn)
		}
		s.mu.Unlock()
	}
	return s
}

// OnCancelled registers a callback for the cancellation
func (s *Subscriber[T, E]) OnCancelled(fn func()) *Subscriber[T, E] {
	if fn != nil {
		s.mu.Lock()
		if !s.cancelled {
			s.onCancelled.Append(fn)
		}
		s.mu.Unlock()
	}
	return s
}

// OnAny registers a callback receiving every state
func (s *Subscriber[T, E]) OnAny(fn func(StreamState[T, E])) *Subscriber[T, E] {
	if fn != nil {
		s.mu.Lock()
		if !s.cancelled {
			s.onAny.Append(fn)
		}
		s.mu.Unlock()
	}
	return s
}

// DeliverOn sets the executor every callback invocation is handed to.
// A nil executor restores delivery on the publisher's context.
func (s *Subscriber[T, E]) DeliverOn(ex dispatch.Executor) *Subscriber[T, E] {
	s.mu.Lock()
	s.executor = ex
	s.mu.Unlock()
	return s
}

// Cancel detaches the subscriber from its publisher and delivers its
// cancellation. Only the first call has an effect.
func (s *Subscriber[T, E]) Cancel() {
	s.mu.Lock()
	hook := s.canceller
	s.canceller = nil
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

// IsCancelled reports whether the subscriber has received its cancellation
func (s *Subscriber[T, E]) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// detach drops the cancellation hook without notifying
func (s *Subscriber[T, E]) detach() {
	s.mu.Lock()
	s.canceller = nil
	s.mu.Unlock()
}

// receive dispatches state to the registered callbacks. It reports false
// when the subscriber was already cancelled and state was ignored.
func (s *Subscriber[T, E]) receive(state StreamState[T, E]) bool {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return false
	}

	var calls []func()
	switch state.Kind() {
	case KindData:
		v, _ := state.Data()
		for _, fn := range s.onData.Snapshot() {
			calls = append(calls, func() { fn(v) })
		}
	case KindError:
		err, _ := state.Err()
		for _, fn := range s.onError.Snapshot() {
			calls = append(calls, func() { fn(err) })
		}
	case KindCancelled:
		s.cancelled = true
		s.canceller = nil
		calls = append(calls, s.onCancelled.Snapshot()...)
	}
	for _, fn := range s.onAny.Snapshot() {
		calls = append(calls, func() { fn(state) })
	}
	ex := s.executor

	// Nothing can be delivered after the cancellation, release the callbacks
	if s.cancelled {
		s.onData.Reset()
		s.onError.Reset()
		s.onCancelled.Reset()
		s.onAny.Reset()
	}
	s.mu.Unlock()

	for _, call := range calls {
		invoke(ex, s.recovery, s.logger, call)
	}
	return true
}
