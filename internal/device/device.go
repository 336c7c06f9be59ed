// Package device owns the relay and status LED: local state, the GPIO
// outputs, persistence, and the On/Off attribute the coordinator sees.
// It is the consumer side of both the button dispatcher and the bridge's
// command topic.
package device

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/zigbee-relay/internal/gpio"
	"github.com/sweeney/zigbee-relay/internal/metrics"
	"github.com/sweeney/zigbee-relay/internal/zcl"
	"github.com/sweeney/zigbee-relay/internal/zigbee"
)

const identifyBlinkPeriod = 100 * time.Millisecond

// Persister stores relay state across restarts. May be nil.
type Persister interface {
	SaveRelayState(on bool) error
	Wipe() error
}

// Device holds relay and LED state.
type Device struct {
	mu             sync.Mutex
	relay          bool
	led            bool
	relayOut       gpio.Output
	ledOut         gpio.Output
	stack          zigbee.Stack
	persist        Persister
	logger         *slog.Logger
	identifyCancel func()
}

// New creates a Device with both outputs off.
func New(relayOut, ledOut gpio.Output, stack zigbee.Stack, persist Persister, logger *slog.Logger) *Device {
	d := &Device{
		relayOut: relayOut,
		ledOut:   ledOut,
		stack:    stack,
		persist:  persist,
		logger:   logger.With("component", "device"),
	}
	d.applyRelay(false)
	d.applyLED(false)
	return d
}

// Restore applies the persisted relay state, if any.
func (d *Device) Restore(on bool) {
	d.logger.Info("restoring relay state", "on", on)
	d.SetRelay(on)
}

// SetRelay drives the relay, persists the state, and reflects it on the
// On/Off attribute.
func (d *Device) SetRelay(on bool) {
	d.mu.Lock()
	d.relay = on
	d.mu.Unlock()

	d.applyRelay(on)

	if d.persist != nil {
		if err := d.persist.SaveRelayState(on); err != nil {
			d.logger.Warn("persist relay state failed", "err", err)
		}
	}

	d.reportOnOff(zcl.EndpointRelay, on)
	d.logger.Info("relay set", "on", on)
}

// ToggleRelay flips the relay and returns the new state.
func (d *Device) ToggleRelay() {
	d.mu.Lock()
	next := !d.relay
	d.mu.Unlock()
	d.SetRelay(next)
}

// RelayState returns the current relay state.
func (d *Device) RelayState() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.relay
}

// SetLED drives the status LED and reflects it on the LED endpoint's
// On/Off attribute.
func (d *Device) SetLED(on bool) {
	d.mu.Lock()
	d.led = on
	d.mu.Unlock()

	d.applyLED(on)
	d.reportOnOff(zcl.EndpointLED, on)
}

// LEDState returns the current LED state.
func (d *Device) LEDState() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// UserInputIndicate implements button.Actions.
func (d *Device) UserInputIndicate() {
	d.stack.UserInputIndicate()
}

// FactoryReset implements button.Actions: wipe persisted state, de-energize
// the relay, and leave the network. Runs through the stack's scheduler,
// never synchronously in the caller's context.
func (d *Device) FactoryReset() {
	d.stack.Schedule(func() {
		d.logger.Info("performing factory reset")
		if d.persist != nil {
			if err := d.persist.Wipe(); err != nil {
				d.logger.Warn("wipe persisted state failed", "err", err)
			}
		}
		d.SetRelay(false)
		d.SetLED(false)
		d.stack.Leave()
	})
}

// HandleCommand applies a decoded coordinator command. Runs on the
// scheduler goroutine.
func (d *Device) HandleCommand(cmd zigbee.Command) {
	if cmd.Relay != nil {
		d.SetRelay(*cmd.Relay)
	}
	if cmd.RelayToggle {
		d.ToggleRelay()
	}
	if cmd.LED != nil {
		d.SetLED(*cmd.LED)
	}
	if cmd.IdentifySeconds > 0 {
		d.Identify(cmd.IdentifySeconds)
	}
}

// Identify blinks the status LED for the given number of seconds, then
// leaves it off. A new identify restarts the blink.
func (d *Device) Identify(seconds int) {
	d.mu.Lock()
	if d.identifyCancel != nil {
		d.identifyCancel()
		d.identifyCancel = nil
	}
	d.mu.Unlock()

	d.logger.Info("identify", "seconds", seconds)
	d.blinkStep(seconds * int(time.Second/identifyBlinkPeriod))
}

func (d *Device) blinkStep(remaining int) {
	if remaining <= 0 {
		d.applyLED(false)
		d.mu.Lock()
		d.identifyCancel = nil
		d.mu.Unlock()
		return
	}
	d.applyLED(remaining%2 == 0)
	cancel := d.stack.After(identifyBlinkPeriod, func() { d.blinkStep(remaining - 1) })
	d.mu.Lock()
	d.identifyCancel = cancel
	d.mu.Unlock()
}

func (d *Device) applyRelay(on bool) {
	if err := d.relayOut.Set(on); err != nil {
		d.logger.Error("relay gpio set failed", "err", err)
	}
	if on {
		metrics.RelayState.Set(1)
	} else {
		metrics.RelayState.Set(0)
	}
}

func (d *Device) applyLED(on bool) {
	if err := d.ledOut.Set(on); err != nil {
		d.logger.Error("led gpio set failed", "err", err)
	}
}

func (d *Device) reportOnOff(endpoint uint8, on bool) {
	if !d.stack.Joined() {
		return
	}
	value := int16(0)
	if on {
		value = 1
	}
	d.stack.Schedule(func() {
		if err := d.stack.ReportAttribute(endpoint, zcl.ClusterOnOff, zcl.AttrOnOff, value); err != nil {
			d.logger.Warn("on/off report failed", "endpoint", endpoint, "err", err)
		}
	})
}
