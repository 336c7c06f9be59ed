package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Relay          string     `json:"relay"`
	LED            string     `json:"led"`
	Button         string     `json:"button"`
	Joined         bool       `json:"joined"`
	VoltageV       float64    `json:"voltage_v"`
	BatteryV       float64    `json:"battery_v"`
	BatteryPercent float64    `json:"battery_percent"`
	LastActivity   string     `json:"last_activity,omitempty"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	Config         ConfigJSON `json:"config"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DebounceMs  int64  `json:"debounce_ms"`
	HoldMs      int64  `json:"hold_ms"`
	SampleSec   int64  `json:"sample_sec"`
	Oversample  int    `json:"oversample"`
	Broker      string `json:"broker"`
	TopicPrefix string `json:"topic_prefix"`
	HTTPAddr    string `json:"http_addr"`
	StorePath   string `json:"store_path,omitempty"`
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := StatusInner{
		Relay:          onOff(snap.Relay),
		LED:            onOff(snap.LED),
		Button:         snap.ButtonState,
		Joined:         snap.Joined,
		VoltageV:       float64(snap.VoltageCV) / 100,
		BatteryV:       float64(snap.BatteryDV) / 10,
		BatteryPercent: snap.BatteryPercent(),
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		Config: ConfigJSON{
			DebounceMs:  snap.Config.DebounceMs,
			HoldMs:      snap.Config.HoldMs,
			SampleSec:   snap.Config.SampleSec,
			Oversample:  snap.Config.Oversample,
			Broker:      snap.Config.Broker,
			TopicPrefix: snap.Config.TopicPrefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			StorePath:   snap.Config.StorePath,
		},
	}
	if !snap.LastActivity.IsZero() {
		inner.LastActivity = snap.LastActivity.UTC().Format(time.RFC3339)
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
