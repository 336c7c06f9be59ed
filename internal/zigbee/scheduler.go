package zigbee

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
)

// Scheduler executes callbacks one at a time in submission order, the
// analogue of the stack's own application-callback queue. Work submitted
// from timer or GPIO context runs here instead, so those contexts never
// block on the protocol stack.
type Scheduler struct {
	queue  chan func()
	clk    clock.Clock
	logger *slog.Logger
}

// NewScheduler creates a scheduler with a bounded queue.
func NewScheduler(clk clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queue:  make(chan func(), 32),
		clk:    clk,
		logger: logger.With("component", "scheduler"),
	}
}

// Run executes queued callbacks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.queue:
			f()
		}
	}
}

// Schedule queues f for execution. Never blocks; a full queue drops the
// callback with a log line.
func (s *Scheduler) Schedule(f func()) {
	select {
	case s.queue <- f:
	default:
		s.logger.Warn("callback queue full, dropping")
	}
}

// After queues f once d has elapsed. The returned cancel prevents the
// submission if it has not happened yet.
func (s *Scheduler) After(d time.Duration, f func()) (cancel func()) {
	t := s.clk.AfterFunc(d, func() { s.Schedule(f) })
	return func() { t.Stop() }
}
