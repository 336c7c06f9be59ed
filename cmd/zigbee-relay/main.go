// Command zigbee-relay runs a button-controlled relay with periodic
// voltage sampling, bridged to a home-automation coordinator over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/zigbee-relay/internal/adc"
	"github.com/sweeney/zigbee-relay/internal/button"
	"github.com/sweeney/zigbee-relay/internal/clock"
	"github.com/sweeney/zigbee-relay/internal/config"
	"github.com/sweeney/zigbee-relay/internal/device"
	"github.com/sweeney/zigbee-relay/internal/gpio"
	"github.com/sweeney/zigbee-relay/internal/report"
	"github.com/sweeney/zigbee-relay/internal/status"
	"github.com/sweeney/zigbee-relay/internal/store"
	"github.com/sweeney/zigbee-relay/internal/web"
	"github.com/sweeney/zigbee-relay/internal/zigbee"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := applyOverrides(&cfg, *broker, *httpAddr, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// applyOverrides applies command-line overrides on top of the loaded
// config and validates the result, so a flag cannot smuggle in a value
// the config file would have been rejected for.
func applyOverrides(cfg *config.Config, broker, httpAddr, logLevel string) error {
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if httpAddr != "" {
		cfg.Web.Listen = httpAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg.Validate()
}

// seedJoined pre-populates the status tracker with the persisted joined
// flag, so the page shows the last known state until the broker answers.
func seedJoined(st *store.Store, tracker *status.Tracker, logger *slog.Logger) {
	joined, err := st.Joined()
	switch {
	case err == nil:
		tracker.SetJoined(joined)
	case !errors.Is(err, store.ErrNotFound):
		logger.Warn("read persisted joined flag failed", "err", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	clk := clock.System()

	// Persistence first: relay state and joined flag survive restarts.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// GPIO. Button and relay failures are fatal; the device is useless
	// without them.
	input, err := gpio.NewRealInput(cfg.GPIO.Chip, cfg.GPIO.PinButton)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer input.Close()

	relayOut, err := gpio.NewRealOutput(cfg.GPIO.Chip, cfg.GPIO.PinRelay)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer relayOut.Close()

	ledOut, err := gpio.NewRealOutput(cfg.GPIO.Chip, cfg.GPIO.PinLED)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer ledOut.Close()

	// Protocol stack bridge. Constructed unconnected so every handler is
	// registered before the first on-connect can fire.
	bridge := zigbee.NewBridge(zigbee.BridgeConfig{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	}, clk, logger)

	tracker := status.NewTracker(time.Now(), status.Config{
		DebounceMs:  int64(cfg.Button.DebounceMs),
		HoldMs:      int64(cfg.Button.HoldMs),
		SampleSec:   int64(cfg.ADC.IntervalSec),
		Oversample:  cfg.ADC.Oversample,
		Broker:      cfg.MQTT.Broker,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		HTTPAddr:    cfg.Web.Listen,
		StorePath:   cfg.Store.Path,
	})

	dev := device.New(relayOut, ledOut, bridge, st, logger)
	bridge.SetCommandHandler(dev.HandleCommand)
	bridge.SetConnectivityHandler(func(joined bool) {
		tracker.SetJoined(joined)
		if err := st.SaveJoined(joined); err != nil {
			logger.Warn("persist joined flag failed", "err", err)
		}
	})

	// The status page shows the last known joined state until the broker
	// answers.
	seedJoined(st, tracker, logger)

	// Restore persisted relay state before the coordinator or the user
	// can issue new commands.
	if on, err := st.RelayState(); err == nil {
		dev.Restore(on)
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.Warn("read persisted relay state failed", "err", err)
	}

	// Button pipeline: edges -> debounce -> classifier -> dispatcher.
	dispatcher := button.NewDispatcher(dev, nil, logger)
	handler := button.NewHandler(button.Config{
		Quiet: cfg.Debounce(),
		Hold:  cfg.Hold(),
	}, clk, func() bool {
		pressed, err := input.Pressed()
		if err != nil {
			logger.Warn("button read failed", "err", err)
			return false
		}
		return pressed
	}, dispatcher.Enqueue, logger)

	if err := input.Subscribe(handler.OnEdge); err != nil {
		return fmt.Errorf("subscribe button edges: %w", err)
	}
	defer handler.Stop()

	// Voltage pipeline. ADC init failure disables sampling but not the
	// relay.
	voltage := report.NewVoltageTracker(cfg.Report.VoltageThresholdCV, bridge, logger)
	battery := report.NewBatteryTracker(cfg.Report.BatteryThresholdDV, bridge, logger)

	var sampler *adc.Sampler
	reader, err := adc.NewSysfsReader(cfg.ADC.Device, cfg.ADC.Channel)
	if err != nil {
		logger.Warn("adc unavailable, voltage reporting disabled", "err", err)
	} else {
		defer reader.Close()
		cal := adc.Calibration{
			RefMillivolts: cfg.ADC.RefMillivolts,
			Resolution:    cfg.ADC.ResolutionBit,
			Multiplier:    cfg.ADC.Multiplier,
		}
		sampler = adc.NewSampler(adc.SamplerConfig{
			Interval:    cfg.SampleInterval(),
			Oversample:  cfg.ADC.Oversample,
			SampleDelay: cfg.SampleDelay(),
		}, reader, cal, clk, func(mv int32) {
			voltage.Update(mv)
			battery.Update(mv)
			tracker.SetVoltage(voltage.Current())
			tracker.SetBattery(battery.Current(), report.Percentage(mv))
		}, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go bridge.Scheduler().Run(ctx)
	go dispatcher.Run(ctx)

	if err := bridge.Connect(); err != nil {
		return fmt.Errorf("connect bridge: %w", err)
	}
	defer bridge.Close()

	if sampler != nil {
		sampler.Start()
		defer sampler.Stop()
	}

	if cfg.Web.Listen != "" {
		srv := web.New(cfg.Web.Listen, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.Web.Listen)
	}

	// Keep the status page's button state and activity time fresh.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tracker.SetButtonState(handler.State().String())
				tracker.SetOutputs(dev.RelayState(), dev.LEDState())
				tracker.SetLastActivity(bridge.LastActivity())
			}
		}
	}()

	logger.Info("started",
		"broker", cfg.MQTT.Broker,
		"debounce", cfg.Debounce(),
		"hold", cfg.Hold(),
		"sample_interval", cfg.SampleInterval(),
		"relay", dev.RelayState())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	logger.Info("shutting down", "signal", s.String())
	return nil
}
