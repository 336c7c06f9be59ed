package zigbee

import (
	"sync"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
)

// Report records one ReportAttribute call on the fake stack.
type Report struct {
	Endpoint uint8
	Cluster  uint16
	Attr     uint16
	Value    int16
}

// FakeStack is a test double for Stack. Scheduled callbacks run
// synchronously by default, which keeps ordering assertions simple; set
// Deferred to collect them for manual draining instead.
type FakeStack struct {
	mu sync.Mutex

	// JoinedFlag controls Joined().
	JoinedFlag bool

	// Deferred makes Schedule collect callbacks instead of running them.
	Deferred bool

	// ReportError, if set, is returned by ReportAttribute.
	ReportError error

	// Reports records every ReportAttribute call.
	Reports []Report

	// UserInputs counts UserInputIndicate calls.
	UserInputs int

	// Left is true after Leave was called.
	Left bool

	// Clk drives After; nil uses immediate execution.
	Clk clock.Clock

	pending []func()
}

// Schedule implements Stack.
func (f *FakeStack) Schedule(fn func()) {
	f.mu.Lock()
	deferred := f.Deferred
	if deferred {
		f.pending = append(f.pending, fn)
	}
	f.mu.Unlock()
	if !deferred {
		fn()
	}
}

// After implements Stack. With a Clk the callback is timer-driven;
// without one it is queued like Schedule.
func (f *FakeStack) After(d time.Duration, fn func()) (cancel func()) {
	if f.Clk != nil {
		t := f.Clk.AfterFunc(d, func() { f.Schedule(fn) })
		return func() { t.Stop() }
	}
	f.Schedule(fn)
	return func() {}
}

// Drain runs callbacks collected while Deferred, in order.
func (f *FakeStack) Drain() {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// UserInputIndicate implements Stack.
func (f *FakeStack) UserInputIndicate() {
	f.mu.Lock()
	f.UserInputs++
	f.mu.Unlock()
}

// ReportAttribute implements Stack.
func (f *FakeStack) ReportAttribute(endpoint uint8, cluster, attr uint16, value int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReportError != nil {
		return f.ReportError
	}
	f.Reports = append(f.Reports, Report{Endpoint: endpoint, Cluster: cluster, Attr: attr, Value: value})
	return nil
}

// Joined implements Stack.
func (f *FakeStack) Joined() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.JoinedFlag
}

// SetJoined flips the joined flag.
func (f *FakeStack) SetJoined(joined bool) {
	f.mu.Lock()
	f.JoinedFlag = joined
	f.mu.Unlock()
}

// ReportsSnapshot returns a copy of the recorded reports, safe to read
// while other goroutines keep reporting.
func (f *FakeStack) ReportsSnapshot() []Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Report(nil), f.Reports...)
}

// HasLeft reports whether Leave was called.
func (f *FakeStack) HasLeft() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Left
}

// Leave implements Stack.
func (f *FakeStack) Leave() {
	f.mu.Lock()
	f.Left = true
	f.JoinedFlag = false
	f.mu.Unlock()
}
