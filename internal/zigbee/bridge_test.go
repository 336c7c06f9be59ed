package zigbee

import (
	"context"
	"testing"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
	"github.com/sweeney/zigbee-relay/internal/zcl"
)

// testBridge builds an unconnected Bridge with a running scheduler,
// enough to exercise command decoding and connectivity transitions.
func testBridge(t *testing.T) (*Bridge, context.CancelFunc) {
	t.Helper()
	clk := clock.NewFakeClock(time.Unix(0, 0))
	b := NewBridge(BridgeConfig{
		Broker:      "tcp://127.0.0.1:1883",
		TopicPrefix: "test-relay",
	}, clk, discard())
	ctx, cancel := context.WithCancel(context.Background())
	go b.sched.Run(ctx)
	return b, cancel
}

func TestNewBridgeDoesNotConnect(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	if b.client != nil {
		t.Error("NewBridge dialed the broker; handlers registered afterwards would miss the first connect")
	}
	if b.Joined() {
		t.Error("bridge joined before Connect")
	}
}

func TestConnectivityHandlerSeesInitialJoin(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	var transitions []bool
	b.SetConnectivityHandler(func(joined bool) {
		transitions = append(transitions, joined)
	})

	// The first broker connect flips the joined flag; a handler that was
	// registered before Connect must observe it.
	b.setJoined(true)
	if len(transitions) != 1 || !transitions[0] {
		t.Fatalf("got transitions %v, want [true]", transitions)
	}

	b.setJoined(false)
	if len(transitions) != 2 || transitions[1] {
		t.Errorf("got transitions %v, want [true false]", transitions)
	}

	// No transition, no callback.
	b.setJoined(false)
	if len(transitions) != 2 {
		t.Errorf("repeated state fired the handler: %v", transitions)
	}
}

func recvCommand(t *testing.T, ch chan Command) Command {
	t.Helper()
	select {
	case cmd := <-ch:
		return cmd
	case <-time.After(time.Second):
		t.Fatal("no command delivered")
		return Command{}
	}
}

func TestHandleSetRelayOn(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	got := make(chan Command, 1)
	b.SetCommandHandler(func(cmd Command) { got <- cmd })

	b.handleSet([]byte(`{"state":"ON"}`))
	cmd := recvCommand(t, got)
	if cmd.Relay == nil || !*cmd.Relay {
		t.Errorf("got %+v, want Relay=true", cmd)
	}
	if cmd.RelayToggle || cmd.LED != nil || cmd.IdentifySeconds != 0 {
		t.Errorf("unexpected extra fields in %+v", cmd)
	}
}

func TestHandleSetToggleAndLED(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	got := make(chan Command, 1)
	b.SetCommandHandler(func(cmd Command) { got <- cmd })

	b.handleSet([]byte(`{"state":"TOGGLE","led":"off"}`))
	cmd := recvCommand(t, got)
	if !cmd.RelayToggle {
		t.Errorf("got %+v, want RelayToggle", cmd)
	}
	if cmd.LED == nil || *cmd.LED {
		t.Errorf("got %+v, want LED=false", cmd)
	}
}

func TestHandleSetIdentify(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	got := make(chan Command, 1)
	b.SetCommandHandler(func(cmd Command) { got <- cmd })

	b.handleSet([]byte(`{"identify":10}`))
	cmd := recvCommand(t, got)
	if cmd.IdentifySeconds != 10 {
		t.Errorf("got %+v, want IdentifySeconds=10", cmd)
	}
}

func TestHandleSetRejectsBadInput(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	got := make(chan Command, 1)
	b.SetCommandHandler(func(cmd Command) { got <- cmd })

	b.handleSet([]byte(`not json`))
	b.handleSet([]byte(`{"state":"MAYBE"}`))

	select {
	case cmd := <-got:
		t.Fatalf("bad payload delivered command %+v", cmd)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHandleSetWithoutHandler(t *testing.T) {
	b, cancel := testBridge(t)
	defer cancel()

	// Must not panic with no handler registered.
	b.handleSet([]byte(`{"state":"ON"}`))
}

func TestEncodeAttribute(t *testing.T) {
	cases := []struct {
		name     string
		cluster  uint16
		attr     uint16
		endpoint uint8
		value    int16
		want     any
	}{
		{"relay on", zcl.ClusterOnOff, zcl.AttrOnOff, zcl.EndpointRelay, 1, "ON"},
		{"relay off", zcl.ClusterOnOff, zcl.AttrOnOff, zcl.EndpointRelay, 0, "OFF"},
		{"voltage centivolts to volts", zcl.ClusterAnalogInput, zcl.AttrAnalogPresentValue, zcl.EndpointVoltage, 330, 3.3},
		{"battery decivolts to volts", zcl.ClusterPowerConfig, zcl.AttrBatteryVoltage, zcl.EndpointVoltage, 36, 3.6},
		{"battery half-percent to percent", zcl.ClusterPowerConfig, zcl.AttrBatteryPercentage, zcl.EndpointVoltage, 100, 50.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			def := zcl.FindAttribute(c.cluster, c.attr)
			if def == nil {
				t.Fatalf("attribute 0x%04x/0x%04x not defined", c.cluster, c.attr)
			}
			if got := encodeAttribute(def, c.endpoint, c.value); got != c.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, c.want, c.want)
			}
		})
	}
}

func TestFakeStackDeferred(t *testing.T) {
	f := &FakeStack{Deferred: true}
	ran := 0
	f.Schedule(func() { ran++ })
	f.Schedule(func() { ran++ })
	if ran != 0 {
		t.Fatalf("deferred callbacks ran early")
	}
	f.Drain()
	if ran != 2 {
		t.Errorf("Drain ran %d callbacks, want 2", ran)
	}
}
