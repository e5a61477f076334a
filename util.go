package propagate

import (
	"log/slog"
	"runtime/debug"

	"github.com/rbaliyan/propagate/dispatch"
)

const (
	spanKeyHubID       = "hub.id"
	spanKeyHubName     = "hub.name"
	spanKeyStateKind   = "state.kind"
	spanKeyDelivered   = "subscribers.delivered"
	spanKeySubscribers = "subscribers.live"
)

// NewID generates a new unique ID
func NewID() string {
	return dispatch.NewID()
}

// Logger returns a logger with the given component name
func Logger(component string) *slog.Logger {
	return dispatch.Logger(component)
}

// invoke runs fn on ex (or inline when ex is nil), recovering panics when
// recovery is enabled so a failing callback cannot break delivery to the rest.
func invoke(ex dispatch.Executor, recovery bool, logger *slog.Logger, fn func()) {
	if recovery {
		inner := fn
		fn = func() {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("callback panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
					)
				}
			}()
			inner()
		}
	}
	if ex == nil {
		fn()
		return
	}
	ex.Execute(fn)
}
