package button

import (
	"context"
	"log/slog"

	"github.com/sweeney/zigbee-relay/internal/metrics"
)

// Actions is what the dispatcher does in response to classified presses.
// Implementations may block or call into the protocol stack; the
// dispatcher runs them on its own goroutine, never in timer context.
type Actions interface {
	// UserInputIndicate tells the stack the user did something, keeping a
	// sleepy connection alive.
	UserInputIndicate()

	// ToggleRelay flips the relay output.
	ToggleRelay()

	// FactoryReset requests a factory reset through the stack's own
	// scheduling mechanism.
	FactoryReset()
}

// NotifyFunc is an optional caller-supplied hook invoked for every press,
// with long=true for a long press.
type NotifyFunc func(long bool)

// Dispatcher consumes press events strictly in arrival order on a single
// goroutine. The queue is bounded; if the consumer cannot keep up the
// event is dropped with a log line rather than blocking timer context.
type Dispatcher struct {
	queue   chan Event
	actions Actions
	notify  NotifyFunc
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. notify may be nil.
func NewDispatcher(actions Actions, notify NotifyFunc, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan Event, 8),
		actions: actions,
		notify:  notify,
		logger:  logger.With("component", "dispatcher"),
	}
}

// Enqueue submits a press event. Never blocks.
func (d *Dispatcher) Enqueue(ev Event) {
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("press queue full, dropping event", "long_press", ev.LongPress)
	}
}

// Run consumes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	d.actions.UserInputIndicate()

	if ev.LongPress {
		d.logger.Info("factory reset triggered")
		metrics.PressesTotal.WithLabelValues("long").Inc()
		if d.notify != nil {
			d.notify(true)
		}
		d.actions.FactoryReset()
		return
	}

	d.logger.Info("short press, toggling relay")
	metrics.PressesTotal.WithLabelValues("short").Inc()
	d.actions.ToggleRelay()
	if d.notify != nil {
		d.notify(false)
	}
}
