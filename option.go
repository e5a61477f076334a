package propagate

import (
	"log/slog"
)

// options holds configuration for hubs (unexported)
type options struct {
	name            string
	logger          *slog.Logger
	asyncEnabled    bool
	recoveryEnabled bool
	metricsEnabled  bool
	tracingEnabled  bool
}

// Option hub option function
type Option func(*options)

// WithName sets the hub name used in logs, metric attributes and span names.
// Defaults to a generated ID.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger for the hub
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAsync enable/disable asynchronous emission for a Publisher.
// When disabled (default) emissions are delivered on the producer's goroutine
// and Emit returns after every subscriber was called, unless it is called
// from a callback or another producer is delivering at the same time: then
// the goroutine already delivering picks the state up, in order.
// When enabled the hub owns a serial queue: Emit returns after enqueue and a
// single goroutine delivers states in submission order.
// The replay hub ignores this option.
func WithAsync(enabled bool) Option {
	return func(o *options) {
		o.asyncEnabled = enabled
	}
}

// WithRecovery enable/disable panic recovery around callbacks.
// recovery should always be enabled, can be disabled for testing.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithMetrics enable/disable OpenTelemetry metrics for the hub
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithTracing enable/disable OpenTelemetry tracing for the hub
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(component string, opts ...Option) *options {
	o := &options{
		recoveryEnabled: true,
		metricsEnabled:  true,
		tracingEnabled:  true,
	}
	for _, opt := range opts {
		opt(o)
	}

	// Finalize dependent fields
	if o.name == "" {
		o.name = NewID()
	}
	if o.logger == nil {
		o.logger = Logger("propagate>" + component)
	}
	o.logger = o.logger.With("hub", o.name)
	return o
}
