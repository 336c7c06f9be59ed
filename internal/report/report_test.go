package report

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sweeney/zigbee-relay/internal/zcl"
	"github.com/sweeney/zigbee-relay/internal/zigbee"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVoltageThresholdGating(t *testing.T) {
	stack := &zigbee.FakeStack{JoinedFlag: true}
	tr := NewVoltageTracker(5, stack, discard())

	// 3.30 V, 3.32 V, 3.37 V, 3.00 V. Starting from a last-reported of 0
	// the first update always crosses; the +2 cV step is absorbed, the
	// next +7 cV (relative to 330) reports, and the big drop reports.
	for _, mv := range []int32{3300, 3320, 3370, 3000} {
		tr.Update(mv)
	}

	want := []int16{330, 337, 300}
	if len(stack.Reports) != len(want) {
		t.Fatalf("got %d reports %+v, want values %v", len(stack.Reports), stack.Reports, want)
	}
	for i, r := range stack.Reports {
		if r.Value != want[i] {
			t.Errorf("report %d: got %d cV, want %d", i, r.Value, want[i])
		}
		if r.Endpoint != zcl.EndpointVoltage || r.Cluster != zcl.ClusterAnalogInput || r.Attr != zcl.AttrAnalogPresentValue {
			t.Errorf("report %d: wrong address %+v", i, r)
		}
	}
}

func TestVoltageExactThresholdReports(t *testing.T) {
	stack := &zigbee.FakeStack{JoinedFlag: true}
	tr := NewVoltageTracker(5, stack, discard())

	tr.Update(3300)
	tr.Update(3350) // exactly 5 cV away

	if len(stack.Reports) != 2 {
		t.Fatalf("got %d reports, want 2 (threshold is inclusive)", len(stack.Reports))
	}
	if stack.Reports[1].Value != 335 {
		t.Errorf("second report: got %d cV, want 335", stack.Reports[1].Value)
	}
}

func TestVoltageSuppressedWhileNotJoined(t *testing.T) {
	stack := &zigbee.FakeStack{JoinedFlag: false}
	tr := NewVoltageTracker(5, stack, discard())

	tr.Update(3300)
	if len(stack.Reports) != 0 {
		t.Fatalf("got reports %+v while not joined, want none", stack.Reports)
	}

	// The crossing stayed dirty: lastReported did not move, so the same
	// value reports as soon as the device is joined again.
	if got := tr.LastReported(); got != 0 {
		t.Fatalf("lastReported moved to %d while not joined", got)
	}
	stack.SetJoined(true)
	tr.Update(3300)
	if len(stack.Reports) != 1 || stack.Reports[0].Value != 330 {
		t.Errorf("got reports %+v after rejoin, want one of 330 cV", stack.Reports)
	}
	if got := tr.LastReported(); got != 330 {
		t.Errorf("lastReported = %d after report, want 330", got)
	}
}

func TestVoltageCurrentAlwaysTracks(t *testing.T) {
	stack := &zigbee.FakeStack{JoinedFlag: true}
	tr := NewVoltageTracker(5, stack, discard())

	tr.Update(3300)
	tr.Update(3310) // below threshold, no report
	if got := tr.Current(); got != 331 {
		t.Errorf("Current = %d, want 331 even without a report", got)
	}
	if got := tr.LastReported(); got != 330 {
		t.Errorf("LastReported = %d, want 330", got)
	}
}

func TestVoltageReportFailureKeepsLastReported(t *testing.T) {
	// A send failure is logged and dropped; lastReported has already
	// moved, so the next report happens on the next crossing.
	stack := &zigbee.FakeStack{JoinedFlag: true, ReportError: errors.New("radio busy")}
	tr := NewVoltageTracker(5, stack, discard())

	tr.Update(3300)
	if len(stack.Reports) != 0 {
		t.Fatalf("got reports %+v despite send failure", stack.Reports)
	}

	stack.ReportError = nil
	tr.Update(3370)
	if len(stack.Reports) != 1 || stack.Reports[0].Value != 337 {
		t.Errorf("got reports %+v, want one of 337 cV", stack.Reports)
	}
}

func TestVoltageReportGoesThroughScheduler(t *testing.T) {
	stack := &zigbee.FakeStack{JoinedFlag: true, Deferred: true}
	tr := NewVoltageTracker(5, stack, discard())

	tr.Update(3300)
	if len(stack.Reports) != 0 {
		t.Fatal("report sent synchronously, want it queued on the scheduler")
	}
	stack.Drain()
	if len(stack.Reports) != 1 {
		t.Fatalf("got %d reports after drain, want 1", len(stack.Reports))
	}
}
