// Package clock abstracts one-shot timers and sleeps so that timer-driven
// logic (button debounce, ADC scheduling) can be driven by simulated time
// in tests. The real implementation is a thin wrapper over the time package.
package clock

import "time"

// Timer is a one-shot timer created by AfterFunc.
type Timer interface {
	// Reset re-arms the timer for d from now. Returns true if the timer
	// was still pending.
	Reset(d time.Duration) bool

	// Stop disarms the timer. Returns true if the timer was still pending.
	// A callback already running is allowed to finish.
	Stop() bool
}

// Clock creates timers and provides the current time.
type Clock interface {
	// AfterFunc arms a one-shot timer that calls f after d.
	AfterFunc(d time.Duration, f func()) Timer

	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// System returns a Clock backed by the time package.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return systemTimer{time.AfterFunc(d, f)}
}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

type systemTimer struct {
	t *time.Timer
}

func (t systemTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
func (t systemTimer) Stop() bool                 { return t.t.Stop() }
