package zigbee

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsInOrder(t *testing.T) {
	clk := clock.NewFakeClock(time.Unix(0, 0))
	s := NewScheduler(clk, discard())

	var order []int
	done := make(chan struct{})
	for i := 1; i <= 5; i++ {
		i := i
		s.Schedule(func() {
			order = append(order, i)
			if i == 5 {
				close(done)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not drain the queue")
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("got order %v, want ascending", order)
		}
	}
}

func TestSchedulerAfter(t *testing.T) {
	clk := clock.NewFakeClock(time.Unix(0, 0))
	s := NewScheduler(clk, discard())

	fired := make(chan struct{})
	s.After(time.Second, func() { close(fired) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-fired:
		t.Fatal("callback ran before the delay elapsed")
	case <-time.After(10 * time.Millisecond):
	}

	clk.Advance(time.Second)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback did not run after the delay")
	}
}

func TestSchedulerAfterCancel(t *testing.T) {
	clk := clock.NewFakeClock(time.Unix(0, 0))
	s := NewScheduler(clk, discard())

	fired := make(chan struct{})
	cancelAfter := s.After(time.Second, func() { close(fired) })
	cancelAfter()
	clk.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-fired:
		t.Fatal("cancelled callback ran")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSchedulerFullQueueDrops(t *testing.T) {
	clk := clock.NewFakeClock(time.Unix(0, 0))
	s := NewScheduler(clk, discard())

	// No consumer; Schedule must never block, even far past capacity.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Schedule(func() {})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a full queue")
	}
}
