// Package status provides a thread-safe status tracker for the
// zigbee-relay daemon. It is read by the HTTP status server.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	DebounceMs     int64
	HoldMs         int64
	SampleSec      int64
	Oversample     int
	Broker         string
	TopicPrefix    string
	HTTPAddr       string
	StorePath      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Relay          bool
	LED            bool
	Joined         bool
	ButtonState    string
	VoltageCV      int16 // centivolts
	BatteryDV      int16 // decivolts
	BatteryHalfPct uint8 // half-percent units
	LastActivity   time.Time
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// BatteryPercent returns the battery charge in percent.
func (s Snapshot) BatteryPercent() float64 {
	return float64(s.BatteryHalfPct) / 2
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetOutputs sets the relay and LED states.
func (t *Tracker) SetOutputs(relay, led bool) {
	t.mu.Lock()
	t.snap.Relay = relay
	t.snap.LED = led
	t.mu.Unlock()
}

// SetJoined sets the network-joined flag.
func (t *Tracker) SetJoined(joined bool) {
	t.mu.Lock()
	t.snap.Joined = joined
	t.mu.Unlock()
}

// SetButtonState sets the press classifier state for display.
func (t *Tracker) SetButtonState(state string) {
	t.mu.Lock()
	t.snap.ButtonState = state
	t.mu.Unlock()
}

// SetVoltage sets the measured rail voltage in centivolts.
func (t *Tracker) SetVoltage(centivolts int16) {
	t.mu.Lock()
	t.snap.VoltageCV = centivolts
	t.mu.Unlock()
}

// SetBattery sets the battery voltage in decivolts and charge in
// half-percent units.
func (t *Tracker) SetBattery(decivolts int16, halfPct uint8) {
	t.mu.Lock()
	t.snap.BatteryDV = decivolts
	t.snap.BatteryHalfPct = halfPct
	t.mu.Unlock()
}

// SetLastActivity records the time of the last user input.
func (t *Tracker) SetLastActivity(at time.Time) {
	t.mu.Lock()
	t.snap.LastActivity = at
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
