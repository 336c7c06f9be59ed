// Package button turns a noisy push-button input into classified press
// events. It has three parts: a Debouncer that waits for the signal to
// settle after a burst of edges, a pure state Machine that classifies
// settled transitions into short and long presses, and a Dispatcher that
// executes the resulting actions outside timer context.
package button

// State is the press classifier state.
type State int

const (
	// StateIdle means the button is released.
	StateIdle State = iota
	// StatePressed means the button is down and the hold timer is running.
	StatePressed
	// StateLongPress means the hold timer expired while pressed; the long
	// press has already been emitted and only a release leads back to idle.
	StateLongPress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateLongPress:
		return "long-press"
	}
	return "unknown"
}

// Event is a classified button press.
type Event struct {
	LongPress bool
}

// TimerOp tells the caller what to do with the hold timer after a
// transition. The machine itself never touches timers, so it can be
// exercised without any clock.
type TimerOp int

const (
	// TimerNone leaves the hold timer as it is.
	TimerNone TimerOp = iota
	// TimerArm starts the hold timer (entering StatePressed).
	TimerArm
	// TimerDisarm stops the hold timer (leaving StatePressed by release).
	TimerDisarm
)

// Machine is the pure press classifier. Not safe for concurrent use;
// the Handler serializes all inputs.
type Machine struct {
	state State
}

// State returns the current classifier state.
func (m *Machine) State() State { return m.state }

// OnSettled consumes a debounced button level and returns the hold-timer
// operation to perform plus the event to emit, if any.
func (m *Machine) OnSettled(pressed bool) (TimerOp, *Event) {
	switch m.state {
	case StateIdle:
		if pressed {
			m.state = StatePressed
			return TimerArm, nil
		}
		return TimerNone, nil

	case StatePressed:
		if !pressed {
			m.state = StateIdle
			return TimerDisarm, &Event{LongPress: false}
		}
		// Still holding, waiting for release or hold expiry.
		return TimerNone, nil

	case StateLongPress:
		if !pressed {
			// Release after the long press was already handled.
			m.state = StateIdle
		}
		return TimerNone, nil
	}
	return TimerNone, nil
}

// OnHoldExpired consumes a hold-timer expiry. If the button was already
// released the timer should have been disarmed; a late firing is treated
// as a no-op rather than an error.
func (m *Machine) OnHoldExpired() *Event {
	if m.state != StatePressed {
		return nil
	}
	m.state = StateLongPress
	return &Event{LongPress: true}
}
