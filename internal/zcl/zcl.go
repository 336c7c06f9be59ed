// Package zcl holds the ZCL cluster and attribute identifiers this device
// exposes, plus the property names the bridge publishes them under.
package zcl

// Endpoints. Numbering is fixed; coordinator-side configurations depend
// on it.
const (
	EndpointLED     uint8 = 1
	EndpointRelay   uint8 = 2
	EndpointVoltage uint8 = 3
)

// Cluster IDs.
const (
	ClusterPowerConfig uint16 = 0x0001
	ClusterOnOff       uint16 = 0x0006
	ClusterAnalogInput uint16 = 0x000C
)

// Attribute IDs.
const (
	AttrOnOff              uint16 = 0x0000
	AttrAnalogPresentValue uint16 = 0x0055
	AttrAnalogStatusFlags  uint16 = 0x006F
	AttrBatteryVoltage     uint16 = 0x0020 // units of 100 mV
	AttrBatteryPercentage  uint16 = 0x0021 // half-percent units, 200 = 100%
)

// AttributeDef names an attribute for bridge payloads.
type AttributeDef struct {
	Cluster uint16
	ID      uint16
	Name    string
}

var attributes = []AttributeDef{
	{ClusterOnOff, AttrOnOff, "state"},
	{ClusterAnalogInput, AttrAnalogPresentValue, "voltage"},
	{ClusterPowerConfig, AttrBatteryVoltage, "battery_voltage"},
	{ClusterPowerConfig, AttrBatteryPercentage, "battery"},
}

// FindAttribute looks up an attribute by cluster and ID. Returns nil for
// attributes this device does not publish.
func FindAttribute(cluster, id uint16) *AttributeDef {
	for i := range attributes {
		if attributes[i].Cluster == cluster && attributes[i].ID == id {
			return &attributes[i]
		}
	}
	return nil
}
