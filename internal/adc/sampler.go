package adc

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/zigbee-relay/internal/clock"
	"github.com/sweeney/zigbee-relay/internal/metrics"
)

// SamplerConfig holds the periodic sampling parameters.
type SamplerConfig struct {
	// Interval between ticks.
	Interval time.Duration
	// Oversample is the number of raw reads averaged per tick.
	Oversample int
	// SampleDelay is the settle delay between consecutive raw reads.
	SampleDelay time.Duration
}

// Sampler reads the ADC on a recurring schedule, averages an oversampled
// burst, converts to millivolts, and hands the value to the update
// callback. Start is idempotent; Stop is cooperative: a tick already in
// flight finishes, and the enabled flag is re-checked before every
// reschedule so no further ticks run.
type Sampler struct {
	cfg    SamplerConfig
	reader Reader
	cal    Calibration
	clk    clock.Clock
	update func(millivolts int32)
	logger *slog.Logger

	mu      sync.Mutex
	enabled bool
	gen     uint64
	timer   clock.Timer
}

// NewSampler creates a periodic sampler. update receives each successful
// tick's averaged voltage in millivolts.
func NewSampler(cfg SamplerConfig, reader Reader, cal Calibration, clk clock.Clock, update func(int32), logger *slog.Logger) *Sampler {
	return &Sampler{
		cfg:    cfg,
		reader: reader,
		cal:    cal,
		clk:    clk,
		update: update,
		logger: logger.With("component", "adc"),
	}
}

// Start begins periodic sampling, taking the first reading immediately.
// Calling Start while already running is a no-op.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	// New generation: a tick still in flight from before a Stop must not
	// reschedule alongside this chain.
	s.gen++
	gen := s.gen
	s.timer = s.clk.AfterFunc(0, func() { s.tick(gen) })
	s.logger.Info("periodic sampling started", "interval", s.cfg.Interval, "oversample", s.cfg.Oversample)
}

// Stop cancels the pending tick and prevents rescheduling. An in-flight
// tick is allowed to finish but will not reschedule.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.logger.Info("periodic sampling stopped")
}

// Running reports whether periodic sampling is enabled.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// ReadOnce performs one oversampled measurement and returns millivolts.
// Used by the periodic tick and available for one-shot reads at startup.
func (s *Sampler) ReadOnce() (int32, error) {
	var sum int64
	valid := 0
	for i := 0; i < s.cfg.Oversample; i++ {
		raw, err := s.reader.ReadRaw()
		if err == nil {
			sum += int64(raw)
			valid++
		}
		if i < s.cfg.Oversample-1 {
			s.clk.Sleep(s.cfg.SampleDelay)
		}
	}
	if valid == 0 {
		return 0, ErrNoSamples
	}
	avg := int16(sum / int64(valid))
	mv := s.cal.ToMillivolts(avg)
	s.logger.Debug("adc read", "valid", valid, "avg_raw", avg, "millivolts", mv)
	return mv, nil
}

func (s *Sampler) tick(gen uint64) {
	mv, err := s.ReadOnce()
	if err != nil {
		// Transient per-tick failure: the previous reported value stands
		// and the next scheduled tick is the retry.
		s.logger.Warn("adc tick failed", "err", err)
		metrics.ADCTickFailures.Inc()
	} else {
		s.update(mv)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The generation check keeps exactly one schedule chain alive: if the
	// sampler was stopped (or stopped and restarted) while this tick was
	// running, the restart's chain owns the schedule, not this one.
	if s.enabled && gen == s.gen {
		s.timer = s.clk.AfterFunc(s.cfg.Interval, func() { s.tick(gen) })
	}
}
