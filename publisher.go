package propagate

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/propagate/dispatch"
	"github.com/rbaliyan/propagate/internal/weakset"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// hub is the state shared by a Publisher and the subscribers it created.
// Subscribers hold the hub, the hub holds subscribers only weakly, and
// nothing here points back at the Publisher so it can be collected while
// subscribers are still around.
type hub[T any, E error] struct {
	id       string
	name     string
	serial   dispatch.Serial
	logger   *slog.Logger
	metrics  *hubMetrics
	tracer   trace.Tracer
	recovery bool

	// cancelled is the producer-side latch, checked before any work is queued
	cancelled atomic.Bool

	// mu guards subs, it is never held while callbacks run
	mu   sync.Mutex
	subs *weakset.Set[Subscriber[T, E]]

	// touched only from the serial context
	closed bool
}

// Publisher is a broadcast hub. Every state it emits is delivered, in
// emission order, to each subscriber that is still referenced by its owner.
//
// A Publisher is cancelled exactly once, by CancelAll, Close, emitting a
// cancelled state, or by becoming unreachable. After that every emission is
// silently dropped.
//
// Callbacks run inside the hub's serial context and may call back into the
// Publisher or their Subscriber: Publish, Cancel, CancelAll or NewSubscriber
// made from a callback take effect after the current state has reached
// every subscriber. Wait called from a callback blocks forever.
type Publisher[T any, E error] struct {
	h *hub[T, E]
}

// NewPublisher creates a broadcast hub
func NewPublisher[T any, E error](opts ...Option) *Publisher[T, E] {
	o := newOptions("publisher", opts...)

	h := &hub[T, E]{
		id:       NewID(),
		name:     o.name,
		logger:   o.logger,
		metrics:  newHubMetrics(o.name, o.metricsEnabled),
		tracer:   newTracer(o.tracingEnabled),
		recovery: o.recoveryEnabled,
		subs:     weakset.New[Subscriber[T, E]](),
	}
	if o.asyncEnabled {
		h.serial = dispatch.NewQueue("PublisherQueue", dispatch.WithLogger(o.logger))
	} else {
		h.serial = dispatch.NewDirect("Publisher", dispatch.WithLogger(o.logger))
	}

	p := &Publisher[T, E]{h: h}
	runtime.AddCleanup(p, func(h *hub[T, E]) {
		h.logger.Debug("releasing publisher")
		h.cancelAll(context.Background())
	}, h)
	return p
}

// ID returns the publisher ID
func (p *Publisher[T, E]) ID() string {
	return p.h.id
}

// Name returns the publisher name
func (p *Publisher[T, E]) Name() string {
	return p.h.name
}

// NewSubscriber creates a subscriber handle attached to this publisher.
//
// The publisher does not keep the handle alive: once the caller drops every
// reference to it, it stops receiving and is pruned. A subscriber created
// after the publisher was cancelled is never attached and receives nothing.
func (p *Publisher[T, E]) NewSubscriber() *Subscriber[T, E] {
	defer runtime.KeepAlive(p)
	return p.h.newSubscriber()
}

// Publish emits a data state
func (p *Publisher[T, E]) Publish(v T) {
	p.EmitContext(context.Background(), Data[T, E](v))
}

// PublishError emits an error state
func (p *Publisher[T, E]) PublishError(err E) {
	p.EmitContext(context.Background(), Error[T](err))
}

// Emit delivers state to every live subscriber.
// Emitting a cancelled state is equivalent to CancelAll.
func (p *Publisher[T, E]) Emit(state StreamState[T, E]) {
	p.EmitContext(context.Background(), state)
}

// EmitContext is Emit with a parent context for tracing and metrics
func (p *Publisher[T, E]) EmitContext(ctx context.Context, state StreamState[T, E]) {
	defer runtime.KeepAlive(p)
	p.h.emit(ctx, state)
}

// CancelAll cancels the publisher: every attached subscriber receives one
// cancelled state and later emissions are dropped. Safe to call repeatedly
// and concurrently, only the first call has an effect.
func (p *Publisher[T, E]) CancelAll() {
	p.h.cancelAll(context.Background())
}

// Close cancels the publisher. It always returns nil.
func (p *Publisher[T, E]) Close() error {
	p.h.cancelAll(context.Background())
	return nil
}

// IsCancelled reports whether the publisher has been cancelled
func (p *Publisher[T, E]) IsCancelled() bool {
	return p.h.cancelled.Load()
}

// Subscribers returns the number of live subscribers. Attachments still
// pending on an async hub are not counted, call Wait first to settle them.
func (p *Publisher[T, E]) Subscribers() int {
	defer runtime.KeepAlive(p)
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return p.h.subs.Len()
}

// Wait blocks until every state emitted so far has been delivered.
// It must not be called from a callback.
func (p *Publisher[T, E]) Wait() {
	defer runtime.KeepAlive(p)
	p.h.serial.Wait()
}

func (h *hub[T, E]) newSubscriber() *Subscriber[T, E] {
	sub := newSubscriber[T, E](h.logger, h.recovery)
	if h.cancelled.Load() {
		h.logger.Debug("publisher cancelled, subscriber will not be attached", "subscriber", sub.id)
		return sub
	}

	sub.canceller = h.cancelSubscriber
	h.serial.Async(func() {
		if h.closed {
			sub.detach()
			return
		}
		h.mu.Lock()
		h.subs.Insert(sub)
		h.mu.Unlock()
		h.metrics.Subscribed(context.Background())
	})
	h.logger.Debug("generated new subscriber", "subscriber", sub.id)
	return sub
}

// cancelSubscriber is the one-shot hook handed to each subscriber: detach it
// from the set, then deliver its cancellation.
func (h *hub[T, E]) cancelSubscriber(sub *Subscriber[T, E]) {
	h.serial.Async(func() {
		h.mu.Lock()
		h.subs.PruneIf(func(s *Subscriber[T, E]) bool {
			return s == sub
		})
		h.mu.Unlock()
		if sub.receive(Cancelled[T, E]()) {
			h.metrics.Cancelled(context.Background(), 1)
		}
	})
}

func (h *hub[T, E]) emit(ctx context.Context, state StreamState[T, E]) {
	if state.IsCancelled() {
		h.cancelAll(ctx)
		return
	}
	if h.cancelled.Load() {
		h.logger.Debug("dropping state, publisher cancelled", "kind", state.Kind())
		h.metrics.Dropped(ctx, state.Kind(), dropReasonCancelled)
		return
	}

	ctx, span := h.tracer.Start(ctx, h.name+".emit",
		trace.WithAttributes(
			attribute.String(spanKeyHubID, h.id),
			attribute.String(spanKeyHubName, h.name),
			attribute.String(spanKeyStateKind, state.Kind().String())),
		trace.WithSpanKind(trace.SpanKindProducer))

	h.serial.Async(func() {
		defer span.End()
		// cancelled between the latch check and this point
		if h.closed {
			h.metrics.Dropped(ctx, state.Kind(), dropReasonClosed)
			return
		}
		var targets []*Subscriber[T, E]
		h.mu.Lock()
		h.subs.ForEach(func(s *Subscriber[T, E]) {
			targets = append(targets, s)
		})
		h.mu.Unlock()

		delivered := 0
		for _, s := range targets {
			if s.receive(state) {
				delivered++
			}
		}
		span.SetAttributes(
			attribute.Int(spanKeyDelivered, delivered),
			attribute.Int(spanKeySubscribers, len(targets)))
		h.metrics.Published(ctx, state.Kind(), delivered)
	})
}

func (h *hub[T, E]) cancelAll(ctx context.Context) {
	if !h.cancelled.CompareAndSwap(false, true) {
		return
	}
	h.serial.Async(func() {
		h.closed = true
		h.mu.Lock()
		removed := h.subs.RemoveAll()
		h.mu.Unlock()
		h.logger.Debug("removing subscribers", "count", len(removed))

		delivered := 0
		for _, s := range removed {
			if s.receive(Cancelled[T, E]()) {
				delivered++
			}
		}
		h.metrics.Cancelled(ctx, delivered)
	})
}
