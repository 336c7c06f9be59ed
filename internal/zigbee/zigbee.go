// Package zigbee is the protocol-stack collaborator boundary. The rest of
// the daemon talks to a narrow Stack contract: a serialized scheduling
// primitive, a user-activity indication, threshold-gated attribute
// reports, and the joined flag. The real implementation is an MQTT bridge
// publishing the device in the zigbee2mqtt topic style; the fake records
// everything for tests.
package zigbee

import "time"

// Stack is the surface the core pipeline depends on.
type Stack interface {
	// Schedule queues f on the stack's serialized callback queue. Callbacks
	// run one at a time in submission order. Never blocks the caller; if
	// the queue is full the callback is dropped with a log line.
	Schedule(f func())

	// After schedules f on the callback queue after d. The returned cancel
	// stops a firing that has not yet been queued.
	After(d time.Duration, f func()) (cancel func())

	// UserInputIndicate signals user activity so a sleepy connection stays
	// alive.
	UserInputIndicate()

	// ReportAttribute pushes an attribute value to the coordinator.
	// Callers gate it on Joined and submit through Schedule so it never
	// runs in timer context.
	ReportAttribute(endpoint uint8, cluster, attr uint16, value int16) error

	// Joined reports whether the device currently has a network connection.
	Joined() bool

	// Leave abandons the network as part of a factory reset.
	Leave()
}

// Command is a coordinator-to-device request decoded by the bridge.
type Command struct {
	// Relay, if non-nil, sets the relay state.
	Relay *bool
	// RelayToggle flips the relay state.
	RelayToggle bool
	// LED, if non-nil, sets the status LED.
	LED *bool
	// IdentifySeconds, if positive, starts an identify blink.
	IdentifySeconds int
}
