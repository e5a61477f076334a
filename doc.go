// Package propagate provides in-process publish/subscribe hubs.
//
// Two hubs are available:
//   - Publisher: a broadcast hub fanning data, error and cancellation states out
//     to any number of Subscriber handles. Subscribers are tracked weakly, a
//     handle the consumer stops referencing is silently dropped.
//   - StreamPublisher: a replay hub with a single StreamSubscriber that
//     remembers the last state and replays it to every newly attached callback.
//
// Both hubs move one way from active to cancelled. Cancellation is delivered
// once to every attached subscriber and nothing is emitted after it.
//
// Basic example:
//
//	pub := propagate.NewPublisher[int, error]()
//	defer pub.Close()
//
//	sub := pub.NewSubscriber().
//	    OnData(func(v int) { fmt.Println("value", v) }).
//	    OnError(func(err error) { fmt.Println("error", err) }).
//	    OnCancelled(func() { fmt.Println("done") })
//
//	pub.Publish(42)
//	pub.PublishError(errors.New("offline"))
//	pub.CancelAll()
//	runtime.KeepAlive(sub)
//
// Replay example:
//
//	stream := propagate.NewStreamPublisher[User, Status]()
//	stream.SetCancelAction(func() { conn.Close() })
//	stream.PublishNewData(user)
//
//	// replayed immediately with user, then receives later states
//	stream.Subscriber().OnNext(func(s propagate.ReplayState[User, Status]) {
//	    render(s)
//	})
//
// Hub Options:
//   - WithName: name used in logs, metrics and spans. Default is a generated ID.
//   - WithLogger: set the slog logger.
//   - WithAsync: deliver broadcast states from a per-hub serial queue. Default is false.
//   - WithRecovery: recover panics in callbacks. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithTracing: enable/disable OpenTelemetry tracing. Default is true.
//
// Delivery context:
// Callbacks run on the hub's serial context. A callback may publish, cancel or
// subscribe on its own hub; that work runs once the current state has reached
// every callback. The consumer can move callbacks elsewhere with DeliverOn,
// for example onto a dispatch.Queue:
//
//	ui := dispatch.NewQueue("ui")
//	sub.DeliverOn(ui)                    // hand off and continue
//	sub.DeliverOn(dispatch.Blocking(ui)) // wait for each callback
package propagate
