package propagate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rbaliyan/propagate/dispatch"
	"github.com/rbaliyan/propagate/internal/callbacks"
)

// StreamCallback receives replay hub states
type StreamCallback[D, L any] func(ReplayState[D, L])

// StreamSubscriber is the single attach point of a StreamPublisher.
//
// It remembers the last state it delivered and replays it to every callback
// attached afterwards, before that callback sees anything newer. Attaching,
// emitting and cancelling run through one serial context, so a callback
// attached concurrently with an emission observes either the previous state
// followed by the emission, or the emission alone.
//
// Callbacks may call back into the hub. OnNext, CancelStream or a publish
// made from a callback takes effect once the current state has reached every
// callback.
type StreamSubscriber[D, L any] struct {
	id       string
	serial   *dispatch.Direct
	logger   *slog.Logger
	metrics  *hubMetrics
	recovery bool

	// touched only from the serial context
	callbacks    *callbacks.List[StreamCallback[D, L]]
	executor     dispatch.Executor
	cancelAction func()

	// mu guards the fields read outside the serial context,
	// it is never held while callbacks run
	mu        sync.Mutex
	lastState *ReplayState[D, L]
	cancelled bool
}

func newStreamSubscriber[D, L any](o *options) *StreamSubscriber[D, L] {
	return &StreamSubscriber[D, L]{
		id:        NewID(),
		serial:    dispatch.NewDirect("StreamSubscriber", dispatch.WithLogger(o.logger)),
		logger:    o.logger,
		metrics:   newHubMetrics(o.name, o.metricsEnabled),
		recovery:  o.recoveryEnabled,
		callbacks: callbacks.New[StreamCallback[D, L]](),
	}
}

// ID returns the subscriber ID
func (s *StreamSubscriber[D, L]) ID() string {
	return s.id
}

// OnNext attaches callback. If a state was already delivered, callback is
// called with it before it sees anything newer; outside of a callback and
// without a concurrent publisher that happens before OnNext returns. Once
// the stream is cancelled the callback only receives the replayed
// cancellation and is not retained.
func (s *StreamSubscriber[D, L]) OnNext(callback StreamCallback[D, L]) *StreamSubscriber[D, L] {
	if callback == nil {
		return s
	}
	s.serial.Async(func() {
		last, cancelled := s.snapshot()
		if last != nil {
			s.deliver(callback, *last)
			s.metrics.Replayed(context.Background(), last.Kind())
		}
		if cancelled {
			return
		}
		s.callbacks.Append(callback)
		s.metrics.Subscribed(context.Background())
	})
	return s
}

// DeliverOn sets the executor every callback invocation is handed to.
// A nil executor restores delivery on the emitting goroutine.
func (s *StreamSubscriber[D, L]) DeliverOn(ex dispatch.Executor) *StreamSubscriber[D, L] {
	s.serial.Async(func() {
		s.executor = ex
	})
	return s
}

// RemoveAllCallbacks detaches every callback. The last state is kept and
// will be replayed to the next callback attached.
func (s *StreamSubscriber[D, L]) RemoveAllCallbacks() {
	s.serial.Async(func() {
		s.logger.Debug("removing callbacks", "count", s.callbacks.Len())
		s.callbacks.Reset()
	})
}

// CancelStream delivers the cancellation to every attached callback, runs
// the cancel action and detaches all callbacks. Only the first call has an
// effect.
func (s *StreamSubscriber[D, L]) CancelStream() {
	s.serial.Async(func() {
		s.mu.Lock()
		if s.cancelled {
			s.mu.Unlock()
			return
		}
		s.cancelled = true
		s.mu.Unlock()

		n := s.emitState(ReplayCancelled[D, L]())
		s.metrics.Cancelled(context.Background(), n)

		if action := s.cancelAction; action != nil {
			s.cancelAction = nil
			invoke(nil, s.recovery, s.logger, action)
		}
		s.callbacks.Reset()
		s.logger.Debug("stream cancelled", "callbacks", n)
	})
}

// LastState returns the last delivered state, ok is false before the first emission
func (s *StreamSubscriber[D, L]) LastState() (state ReplayState[D, L], ok bool) {
	last, _ := s.snapshot()
	if last == nil {
		return state, false
	}
	return *last, true
}

// IsCancelled reports whether the stream has been cancelled
func (s *StreamSubscriber[D, L]) IsCancelled() bool {
	_, cancelled := s.snapshot()
	return cancelled
}

func (s *StreamSubscriber[D, L]) snapshot() (*ReplayState[D, L], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastState, s.cancelled
}

// setCancelAction replaces the action run on cancellation
func (s *StreamSubscriber[D, L]) setCancelAction(action func()) {
	s.serial.Async(func() {
		if s.IsCancelled() {
			s.logger.Debug("stream already cancelled, ignoring cancel action")
			return
		}
		s.cancelAction = action
	})
}

// emitNewState delivers state to every callback and records it as the last state
func (s *StreamSubscriber[D, L]) emitNewState(state ReplayState[D, L]) {
	if state.IsCancelled() {
		s.CancelStream()
		return
	}
	s.serial.Async(func() {
		if s.IsCancelled() {
			s.metrics.Dropped(context.Background(), state.Kind(), dropReasonCancelled)
			return
		}
		s.emitState(state)
	})
}

// emitState must run on the serial context
func (s *StreamSubscriber[D, L]) emitState(state ReplayState[D, L]) int {
	s.mu.Lock()
	s.lastState = &state
	s.mu.Unlock()

	n := 0
	s.callbacks.ForEach(func(callback StreamCallback[D, L]) {
		s.deliver(callback, state)
		n++
	})
	if !state.IsCancelled() {
		s.metrics.Published(context.Background(), state.Kind(), n)
	}
	return n
}

func (s *StreamSubscriber[D, L]) deliver(callback StreamCallback[D, L], state ReplayState[D, L]) {
	invoke(s.executor, s.recovery, s.logger, func() {
		callback(state)
	})
}
