// Package report implements threshold-gated attribute reporting. Each
// tracker keeps the current value and the last value actually reported;
// a report goes out only when the change crosses the attribute's
// threshold and the device is joined. lastReported moves only on
// emission, so a change that happened while disconnected stays dirty and
// is reported after rejoin.
package report

import (
	"log/slog"
	"sync"

	"github.com/sweeney/zigbee-relay/internal/metrics"
	"github.com/sweeney/zigbee-relay/internal/zcl"
)

// Sender is the slice of the protocol stack the trackers use.
type Sender interface {
	Joined() bool
	Schedule(f func())
	ReportAttribute(endpoint uint8, cluster, attr uint16, value int16) error
}

// VoltageTracker reports the measured rail voltage as an Analog Input
// present value in centivolts.
type VoltageTracker struct {
	mu           sync.Mutex
	threshold    int16
	stack        Sender
	current      int16
	lastReported int16
	logger       *slog.Logger
}

// NewVoltageTracker creates a tracker with the given report threshold in
// centivolts.
func NewVoltageTracker(threshold int16, stack Sender, logger *slog.Logger) *VoltageTracker {
	return &VoltageTracker{
		threshold: threshold,
		stack:     stack,
		logger:    logger.With("component", "voltage"),
	}
}

// Update consumes a new measurement in millivolts. The current value is
// always updated; a report is emitted only on a threshold-crossing change
// while joined.
func (t *VoltageTracker) Update(millivolts int32) {
	value := int16(millivolts / 10) // centivolts

	t.mu.Lock()
	t.current = value
	diff := absDiff(value, t.lastReported)
	crossed := diff >= t.threshold
	joined := crossed && t.stack.Joined()
	if joined {
		t.lastReported = value
	}
	t.mu.Unlock()

	t.logger.Debug("voltage updated", "centivolts", value, "diff", diff)

	if !crossed {
		return
	}
	if !joined {
		metrics.ReportsTotal.WithLabelValues("voltage", "suppressed").Inc()
		t.logger.Debug("report suppressed, not joined", "centivolts", value)
		return
	}

	metrics.ReportsTotal.WithLabelValues("voltage", "sent").Inc()
	t.stack.Schedule(func() {
		err := t.stack.ReportAttribute(zcl.EndpointVoltage, zcl.ClusterAnalogInput, zcl.AttrAnalogPresentValue, value)
		if err != nil {
			// No requeue; the next threshold crossing reports again.
			t.logger.Warn("voltage report failed", "err", err)
			return
		}
		t.logger.Info("voltage reported", "centivolts", value)
	})
}

// Current returns the latest value in centivolts.
func (t *VoltageTracker) Current() int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// LastReported returns the last emitted value in centivolts.
func (t *VoltageTracker) LastReported() int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastReported
}

func absDiff(a, b int16) int16 {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d
}
