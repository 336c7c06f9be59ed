package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsReader reads raw codes from a Linux IIO channel, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage2_raw.
type SysfsReader struct {
	path string
}

// NewSysfsReader creates a reader for the given IIO device and channel.
// It fails if the channel file does not exist, so a missing ADC is caught
// at init time rather than on the first tick.
func NewSysfsReader(device string, channel int) (*SysfsReader, error) {
	path := filepath.Join("/sys/bus/iio/devices", device, fmt.Sprintf("in_voltage%d_raw", channel))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("adc channel %s: %w", path, err)
	}
	return &SysfsReader{path: path}, nil
}

// ReadRaw reads one conversion result from sysfs.
func (r *SysfsReader) ReadRaw() (int16, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", r.path, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return int16(v), nil
}

// Close releases nothing; sysfs files are opened per read.
func (r *SysfsReader) Close() error { return nil }
