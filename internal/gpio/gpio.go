// Package gpio provides the button input and relay/LED outputs with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device; fakes allow testing without hardware.
package gpio

// Input is the button line: a current level plus both-edge events.
type Input interface {
	// Pressed returns the current logical level (true = pressed). The raw
	// line is active low behind a pull-up; the implementation inverts it.
	Pressed() (bool, error)

	// Subscribe registers fn to be called on every rising or falling edge.
	// Only one subscriber is supported; Subscribe must be called before
	// any edges are expected.
	Subscribe(fn func()) error

	// Close releases the line.
	Close() error
}

// Output is a relay or LED line.
type Output interface {
	// Set drives the line (true = energized/lit). No feedback.
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinButton = 13
	DefaultPinRelay  = 19
	DefaultPinLED    = 6
)
