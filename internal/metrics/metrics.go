// Package metrics defines the Prometheus instruments shared across the
// daemon. They are registered on the default registry and exposed by the
// status server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PressesTotal counts classified button presses by kind (short/long).
	PressesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_button_presses_total",
		Help: "Total classified button presses by kind.",
	}, []string{"kind"})

	// ReportsTotal counts attribute reports by attribute name and outcome
	// (sent/suppressed). Suppressed means the change crossed the threshold
	// while the device was not joined.
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_attribute_reports_total",
		Help: "Attribute reports by attribute and outcome (sent, suppressed).",
	}, []string{"attribute", "outcome"})

	// ADCTickFailures counts sampling ticks where every oversample read
	// failed and no value was produced.
	ADCTickFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_adc_tick_failures_total",
		Help: "Sampling ticks where all ADC reads failed.",
	})

	// RelayState is 1 when the relay is on, 0 when off.
	RelayState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_state",
		Help: "Current relay state (1 = on, 0 = off).",
	})

	// Joined is 1 while the device is joined to the network.
	Joined = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_network_joined",
		Help: "1 while the device is joined to the network.",
	})
)
