// Package config loads the daemon configuration from a YAML file with
// sensible defaults for every field, so an empty file is a valid config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/zigbee-relay/internal/gpio"
)

// Config is the daemon configuration.
type Config struct {
	MQTT struct {
		Broker      string `yaml:"broker"`
		ClientID    string `yaml:"client_id"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`

	GPIO struct {
		Chip      string `yaml:"chip"`
		PinButton int    `yaml:"pin_button"`
		PinRelay  int    `yaml:"pin_relay"`
		PinLED    int    `yaml:"pin_led"`
	} `yaml:"gpio"`

	Button struct {
		DebounceMs int `yaml:"debounce_ms"`
		HoldMs     int `yaml:"hold_ms"`
	} `yaml:"button"`

	ADC struct {
		Device        string `yaml:"device"`
		Channel       int    `yaml:"channel"`
		IntervalSec   int    `yaml:"interval_sec"`
		Oversample    int    `yaml:"oversample"`
		SampleDelayUs int    `yaml:"sample_delay_us"`
		RefMillivolts int32  `yaml:"ref_millivolts"`
		ResolutionBit uint   `yaml:"resolution_bits"`
		Multiplier    int32  `yaml:"multiplier"`
	} `yaml:"adc"`

	Report struct {
		VoltageThresholdCV int16 `yaml:"voltage_threshold_cv"`
		BatteryThresholdDV int16 `yaml:"battery_threshold_dv"`
	} `yaml:"report"`

	Web struct {
		Listen string `yaml:"listen"`
	} `yaml:"web"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns a config with all defaults applied: 30 ms debounce,
// 5 s hold, 60 s sampling with 8x oversampling, 5 cV / 5 dV report
// thresholds, x5 rail divider.
func Default() Config {
	var c Config
	c.MQTT.Broker = "tcp://127.0.0.1:1883"
	c.MQTT.ClientID = "zigbee-relay"
	c.MQTT.TopicPrefix = "zigbee-relay"
	c.GPIO.Chip = "gpiochip0"
	c.GPIO.PinButton = gpio.DefaultPinButton
	c.GPIO.PinRelay = gpio.DefaultPinRelay
	c.GPIO.PinLED = gpio.DefaultPinLED
	c.Button.DebounceMs = 30
	c.Button.HoldMs = 5000
	c.ADC.Device = "iio:device0"
	c.ADC.Channel = 2
	c.ADC.IntervalSec = 60
	c.ADC.Oversample = 8
	c.ADC.SampleDelayUs = 100
	c.ADC.RefMillivolts = 600 * 6 // 0.6 V internal reference, gain 1/6
	c.ADC.ResolutionBit = 12
	c.ADC.Multiplier = 5
	c.Report.VoltageThresholdCV = 5
	c.Report.BatteryThresholdDV = 5
	c.Web.Listen = ":8080"
	c.Store.Path = "zigbee-relay.db"
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults. The result is always validated.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.Button.DebounceMs <= 0 {
		return fmt.Errorf("button.debounce_ms must be positive, got %d", c.Button.DebounceMs)
	}
	if c.Button.HoldMs <= c.Button.DebounceMs {
		return fmt.Errorf("button.hold_ms must exceed debounce_ms, got %d", c.Button.HoldMs)
	}
	if c.ADC.Oversample < 1 {
		return fmt.Errorf("adc.oversample must be at least 1, got %d", c.ADC.Oversample)
	}
	if c.ADC.IntervalSec < 1 {
		return fmt.Errorf("adc.interval_sec must be at least 1, got %d", c.ADC.IntervalSec)
	}
	if c.ADC.ResolutionBit == 0 || c.ADC.ResolutionBit > 16 {
		return fmt.Errorf("adc.resolution_bits must be 1-16, got %d", c.ADC.ResolutionBit)
	}
	if c.Report.VoltageThresholdCV < 1 || c.Report.BatteryThresholdDV < 1 {
		return fmt.Errorf("report thresholds must be at least 1")
	}
	return nil
}

// Debounce returns the debounce duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Button.DebounceMs) * time.Millisecond
}

// Hold returns the long-press hold duration.
func (c *Config) Hold() time.Duration {
	return time.Duration(c.Button.HoldMs) * time.Millisecond
}

// SampleInterval returns the ADC sampling interval.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.ADC.IntervalSec) * time.Second
}

// SampleDelay returns the delay between oversample reads.
func (c *Config) SampleDelay() time.Duration {
	return time.Duration(c.ADC.SampleDelayUs) * time.Microsecond
}
