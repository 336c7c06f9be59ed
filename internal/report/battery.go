package report

import (
	"log/slog"
	"sync"

	"github.com/sweeney/zigbee-relay/internal/metrics"
	"github.com/sweeney/zigbee-relay/internal/zcl"
)

// Li-ion discharge endpoints for the percentage mapping.
const (
	batteryEmptyMillivolts = 3000
	batteryFullMillivolts  = 4200
)

// BatteryTracker reports battery voltage on the Power Configuration
// cluster in decivolts (units of 100 mV) plus a derived remaining
// percentage in half-percent units. Thresholding is on the decivolt
// value; the percentage rides along with every voltage report.
type BatteryTracker struct {
	mu           sync.Mutex
	threshold    int16
	stack        Sender
	current      int16 // decivolts
	lastReported int16
	logger       *slog.Logger
}

// NewBatteryTracker creates a tracker with the given report threshold in
// decivolts.
func NewBatteryTracker(threshold int16, stack Sender, logger *slog.Logger) *BatteryTracker {
	return &BatteryTracker{
		threshold: threshold,
		stack:     stack,
		logger:    logger.With("component", "battery"),
	}
}

// Update consumes a new battery measurement in millivolts.
func (t *BatteryTracker) Update(millivolts int32) {
	value := int16(millivolts / 100) // decivolts
	pct := Percentage(millivolts)

	t.mu.Lock()
	t.current = value
	diff := absDiff(value, t.lastReported)
	crossed := diff >= t.threshold
	joined := crossed && t.stack.Joined()
	if joined {
		t.lastReported = value
	}
	t.mu.Unlock()

	if !crossed {
		return
	}
	if !joined {
		metrics.ReportsTotal.WithLabelValues("battery", "suppressed").Inc()
		t.logger.Debug("report suppressed, not joined", "decivolts", value)
		return
	}

	metrics.ReportsTotal.WithLabelValues("battery", "sent").Inc()
	t.stack.Schedule(func() {
		if err := t.stack.ReportAttribute(zcl.EndpointVoltage, zcl.ClusterPowerConfig, zcl.AttrBatteryVoltage, value); err != nil {
			t.logger.Warn("battery voltage report failed", "err", err)
			return
		}
		if err := t.stack.ReportAttribute(zcl.EndpointVoltage, zcl.ClusterPowerConfig, zcl.AttrBatteryPercentage, int16(pct)); err != nil {
			t.logger.Warn("battery percentage report failed", "err", err)
			return
		}
		t.logger.Info("battery reported", "decivolts", value, "half_percent", pct)
	})
}

// Current returns the latest value in decivolts.
func (t *BatteryTracker) Current() int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// LastReported returns the last emitted value in decivolts.
func (t *BatteryTracker) LastReported() int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastReported
}

// Percentage maps a battery voltage to remaining charge in half-percent
// units (200 = 100%). Linear between 3.0 V and 4.2 V, clamped outside.
func Percentage(millivolts int32) uint8 {
	if millivolts <= batteryEmptyMillivolts {
		return 0
	}
	if millivolts >= batteryFullMillivolts {
		return 200
	}
	span := int32(batteryFullMillivolts - batteryEmptyMillivolts)
	return uint8((millivolts - batteryEmptyMillivolts) * 200 / span)
}
