//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// NewRealInput returns an error on non-Linux platforms.
func NewRealInput(chipName string, pin int) (*RealInput, error) {
	return nil, errUnsupported
}

func (in *RealInput) Pressed() (bool, error)    { return false, errUnsupported }
func (in *RealInput) Subscribe(fn func()) error { return errUnsupported }
func (in *RealInput) Close() error              { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chipName string, pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

func (o *RealOutput) Set(on bool) error { return errUnsupported }
func (o *RealOutput) Close() error      { return nil }
