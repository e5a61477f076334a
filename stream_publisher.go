package propagate

import "runtime"

// StreamPublisher is the producer side of a replay hub. It owns exactly one
// StreamSubscriber, created with the publisher.
//
// The stream is cancelled by Close, by publishing a cancelled state, or once
// the StreamPublisher becomes unreachable. Holding only the subscriber does
// not keep the stream open.
type StreamPublisher[D, L any] struct {
	subscriber *StreamSubscriber[D, L]
}

// NewStreamPublisher creates a replay hub.
// WithAsync is ignored: replay hubs always deliver on the publishing goroutine.
func NewStreamPublisher[D, L any](opts ...Option) *StreamPublisher[D, L] {
	o := newOptions("stream", opts...)
	p := &StreamPublisher[D, L]{
		subscriber: newStreamSubscriber[D, L](o),
	}
	runtime.AddCleanup(p, func(s *StreamSubscriber[D, L]) {
		s.logger.Debug("releasing stream publisher")
		s.CancelStream()
	}, p.subscriber)
	return p
}

// Subscriber returns the hub's subscriber
func (p *StreamPublisher[D, L]) Subscriber() *StreamSubscriber[D, L] {
	return p.subscriber
}

// PublishNewState delivers state to every attached callback.
// Publishing a cancelled state is equivalent to Close.
func (p *StreamPublisher[D, L]) PublishNewState(state ReplayState[D, L]) {
	defer runtime.KeepAlive(p)
	p.subscriber.emitNewState(state)
}

// PublishNewData publishes a data state
func (p *StreamPublisher[D, L]) PublishNewData(v D) {
	p.PublishNewState(NewData[D, L](v))
}

// PublishLEEO publishes a loading/empty/error/offline state
func (p *StreamPublisher[D, L]) PublishLEEO(v L) {
	p.PublishNewState(LEEO[D](v))
}

// SetCancelAction sets the action run once when the stream is cancelled,
// replacing any previous action.
func (p *StreamPublisher[D, L]) SetCancelAction(action func()) {
	defer runtime.KeepAlive(p)
	p.subscriber.setCancelAction(action)
}

// Close cancels the stream. It always returns nil.
func (p *StreamPublisher[D, L]) Close() error {
	p.subscriber.CancelStream()
	return nil
}
