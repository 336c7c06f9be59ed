package button

import (
	"sync"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
)

// Debouncer implements sample-after-quiet debounce: every edge re-arms a
// single-shot quiet timer, and only when no edges arrive for the full
// quiet period does the settled callback run. Bounce trains of any length
// keep pushing the deadline out, so the callback sees the settled level,
// never an intermediate bounce. This is deliberately not edge-counting
// debounce, which caps the bounce train length it can absorb.
type Debouncer struct {
	mu      sync.Mutex
	clk     clock.Clock
	quiet   time.Duration
	timer   clock.Timer
	settled func()
}

// NewDebouncer creates a Debouncer that calls settled once per quiet
// interval after the last edge.
func NewDebouncer(clk clock.Clock, quiet time.Duration, settled func()) *Debouncer {
	return &Debouncer{clk: clk, quiet: quiet, settled: settled}
}

// Edge records a rising or falling edge. Safe to call from the GPIO event
// goroutine; its only effect is re-arming the quiet timer (last edge wins).
func (d *Debouncer) Edge() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		d.timer = d.clk.AfterFunc(d.quiet, d.settled)
		return
	}
	d.timer.Reset(d.quiet)
}

// Stop disarms any pending quiet timer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
