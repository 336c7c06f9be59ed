package device

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sweeney/zigbee-relay/internal/gpio"
	"github.com/sweeney/zigbee-relay/internal/zcl"
	"github.com/sweeney/zigbee-relay/internal/zigbee"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePersister struct {
	saved   []bool
	saveErr error
	wiped   bool
}

func (p *fakePersister) SaveRelayState(on bool) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = append(p.saved, on)
	return nil
}

func (p *fakePersister) Wipe() error {
	p.wiped = true
	return nil
}

type fixture struct {
	relay   *gpio.FakeOutput
	led     *gpio.FakeOutput
	stack   *zigbee.FakeStack
	persist *fakePersister
	dev     *Device
}

func newFixture(joined bool) *fixture {
	f := &fixture{
		relay:   gpio.NewFakeOutput(),
		led:     gpio.NewFakeOutput(),
		stack:   &zigbee.FakeStack{JoinedFlag: joined},
		persist: &fakePersister{},
	}
	f.dev = New(f.relay, f.led, f.stack, f.persist, discard())
	return f
}

func TestNewStartsOff(t *testing.T) {
	f := newFixture(true)

	if f.dev.RelayState() || f.relay.On() {
		t.Error("relay not off after New")
	}
	if f.dev.LEDState() || f.led.On() {
		t.Error("led not off after New")
	}
}

func TestToggleRelay(t *testing.T) {
	f := newFixture(true)

	f.dev.ToggleRelay()
	if !f.dev.RelayState() || !f.relay.On() {
		t.Fatal("relay not on after first toggle")
	}
	f.dev.ToggleRelay()
	if f.dev.RelayState() || f.relay.On() {
		t.Fatal("relay not off after second toggle")
	}

	if len(f.persist.saved) != 2 || !f.persist.saved[0] || f.persist.saved[1] {
		t.Errorf("persisted states %v, want [true false]", f.persist.saved)
	}
}

func TestSetRelayReportsOnOff(t *testing.T) {
	f := newFixture(true)

	f.dev.SetRelay(true)
	if len(f.stack.Reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(f.stack.Reports))
	}
	r := f.stack.Reports[0]
	if r.Endpoint != zcl.EndpointRelay || r.Cluster != zcl.ClusterOnOff || r.Attr != zcl.AttrOnOff || r.Value != 1 {
		t.Errorf("report %+v, want on/off=1 on relay endpoint", r)
	}
}

func TestSetRelayNoReportWhileNotJoined(t *testing.T) {
	f := newFixture(false)

	f.dev.SetRelay(true)
	if len(f.stack.Reports) != 0 {
		t.Errorf("got reports %+v while not joined", f.stack.Reports)
	}
	// Local control still works.
	if !f.relay.On() {
		t.Error("relay not driven while not joined")
	}
	if len(f.persist.saved) != 1 {
		t.Error("state not persisted while not joined")
	}
}

func TestSetLEDReportsOnLEDEndpoint(t *testing.T) {
	f := newFixture(true)

	f.dev.SetLED(true)
	if !f.led.On() {
		t.Fatal("led not driven")
	}
	if len(f.stack.Reports) != 1 || f.stack.Reports[0].Endpoint != zcl.EndpointLED {
		t.Errorf("got reports %+v, want one on led endpoint", f.stack.Reports)
	}
}

func TestPersistFailureStillDrivesRelay(t *testing.T) {
	f := newFixture(true)
	f.persist.saveErr = errors.New("disk full")

	f.dev.SetRelay(true)
	if !f.relay.On() {
		t.Error("relay not driven when persist fails")
	}
}

func TestFactoryReset(t *testing.T) {
	f := newFixture(true)
	f.dev.SetRelay(true)
	f.dev.SetLED(true)

	f.dev.FactoryReset()

	if !f.persist.wiped {
		t.Error("persisted state not wiped")
	}
	if f.relay.On() {
		t.Error("relay still energized after factory reset")
	}
	if f.led.On() {
		t.Error("led still on after factory reset")
	}
	if !f.stack.Left {
		t.Error("stack Leave not called")
	}
}

func TestUserInputIndicate(t *testing.T) {
	f := newFixture(true)

	f.dev.UserInputIndicate()
	f.dev.UserInputIndicate()
	if f.stack.UserInputs != 2 {
		t.Errorf("got %d user inputs, want 2", f.stack.UserInputs)
	}
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(true)

	on := true
	f.dev.HandleCommand(zigbee.Command{Relay: &on})
	if !f.dev.RelayState() {
		t.Fatal("relay not on after command")
	}

	f.dev.HandleCommand(zigbee.Command{RelayToggle: true})
	if f.dev.RelayState() {
		t.Fatal("relay not toggled off")
	}

	ledOn := true
	f.dev.HandleCommand(zigbee.Command{LED: &ledOn})
	if !f.dev.LEDState() {
		t.Fatal("led not on after command")
	}
}

func TestIdentifyEndsWithLEDOff(t *testing.T) {
	f := newFixture(true)

	// The fake stack runs After callbacks synchronously, so the whole
	// blink sequence completes inside Identify.
	f.dev.Identify(1)

	if f.led.On() {
		t.Error("led left on after identify")
	}
	// One second at 100 ms steps blinks several times.
	if len(f.led.History) < 10 {
		t.Errorf("only %d led writes during identify", len(f.led.History))
	}
}

func TestRestore(t *testing.T) {
	f := newFixture(false)

	f.dev.Restore(true)
	if !f.dev.RelayState() || !f.relay.On() {
		t.Error("relay not restored")
	}
}
