// Package adc reads an analog input channel and drives the periodic
// voltage sampling pipeline. The real implementation reads Linux IIO
// sysfs; the fake allows testing without hardware.
package adc

// Reader reads raw codes from a single ADC channel.
type Reader interface {
	// ReadRaw returns one raw conversion result.
	ReadRaw() (int16, error)

	// Close releases the channel.
	Close() error
}

// Calibration converts a raw code to millivolts with a linear scale plus
// a fixed hardware divider multiplier (e.g. 5 for a rail measured through
// a divide-by-five tap).
type Calibration struct {
	// RefMillivolts is the full-scale reference voltage.
	RefMillivolts int32
	// Resolution is the converter resolution in bits.
	Resolution uint
	// Multiplier undoes a fixed hardware divider. Zero is treated as 1.
	Multiplier int32
}

// ToMillivolts converts a raw code to millivolts at the measured point.
func (c Calibration) ToMillivolts(raw int16) int32 {
	mv := int32(raw) * c.RefMillivolts >> c.Resolution
	if c.Multiplier > 1 {
		mv *= c.Multiplier
	}
	return mv
}
