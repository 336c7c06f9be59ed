package button

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
)

// Config holds the button timing parameters.
type Config struct {
	// Quiet is the debounce settle period (no edges for this long).
	Quiet time.Duration
	// Hold is how long the button must stay pressed for a long press.
	Hold time.Duration
}

// Handler wires the Debouncer and Machine to real timers and a level
// source. OnEdge is the only entry point called from the GPIO event
// goroutine; everything else runs in timer callbacks, serialized by the
// handler's mutex.
type Handler struct {
	mu        sync.Mutex
	cfg       Config
	clk       clock.Clock
	level     func() bool
	sink      func(Event)
	machine   Machine
	debouncer *Debouncer
	holdTimer clock.Timer
	logger    *slog.Logger
}

// NewHandler creates a button handler. level must return the current
// physical button level (true = pressed); sink receives classified events
// and must not block (the Dispatcher's Enqueue satisfies this).
func NewHandler(cfg Config, clk clock.Clock, level func() bool, sink func(Event), logger *slog.Logger) *Handler {
	h := &Handler{
		cfg:    cfg,
		clk:    clk,
		level:  level,
		sink:   sink,
		logger: logger.With("component", "button"),
	}
	h.debouncer = NewDebouncer(clk, cfg.Quiet, h.onSettle)
	return h
}

// OnEdge must be called on every rising or falling edge of the button
// input. It does no classification itself.
func (h *Handler) OnEdge() {
	h.debouncer.Edge()
}

// State returns the current classifier state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.machine.State()
}

// Stop disarms both timers. Pending events already handed to the sink are
// unaffected.
func (h *Handler) Stop() {
	h.debouncer.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.holdTimer != nil {
		h.holdTimer.Stop()
	}
}

// onSettle runs in quiet-timer context: sample the current level (not the
// level at any edge) and apply it to the machine.
func (h *Handler) onSettle() {
	pressed := h.level()

	h.mu.Lock()
	op, ev := h.machine.OnSettled(pressed)
	switch op {
	case TimerArm:
		if h.holdTimer == nil {
			h.holdTimer = h.clk.AfterFunc(h.cfg.Hold, h.onHoldExpired)
		} else {
			h.holdTimer.Reset(h.cfg.Hold)
		}
	case TimerDisarm:
		if h.holdTimer != nil {
			h.holdTimer.Stop()
		}
	}
	state := h.machine.State()
	h.mu.Unlock()

	h.logger.Debug("button settled", "pressed", pressed, "state", state)
	if ev != nil {
		h.sink(*ev)
	}
}

// onHoldExpired runs in hold-timer context. The machine re-checks its own
// state, so a firing that raced a release is a no-op.
func (h *Handler) onHoldExpired() {
	h.mu.Lock()
	ev := h.machine.OnHoldExpired()
	h.mu.Unlock()

	if ev != nil {
		h.logger.Info("long press detected")
		h.sink(*ev)
	}
}
