package adc

import "errors"

// ErrNoSamples means every raw read in an oversample burst failed, so
// there was nothing to average.
var ErrNoSamples = errors.New("adc: all samples failed")
