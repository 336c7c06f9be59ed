//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealInput is the button line on actual hardware. Kernel debounce is not
// requested; the settle logic in internal/button owns debouncing.
type RealInput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int

	mu sync.Mutex
	fn func()
}

// NewRealInput requests the button pin as input with pull-up and
// both-edge event detection.
func NewRealInput(chipName string, pin int) (*RealInput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	in := &RealInput{chip: chip, pin: pin}
	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(in.onEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}
	in.line = line
	return in, nil
}

// Pressed returns the logical level. The button pulls the line low when
// pressed, so raw 0 = pressed.
func (in *RealInput) Pressed() (bool, error) {
	v, err := in.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin %d: %w", in.pin, err)
	}
	return v == 0, nil
}

// Subscribe sets the edge callback.
func (in *RealInput) Subscribe(fn func()) error {
	in.mu.Lock()
	in.fn = fn
	in.mu.Unlock()
	return nil
}

func (in *RealInput) onEvent(gpiocdev.LineEvent) {
	in.mu.Lock()
	fn := in.fn
	in.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close releases the line and chip.
func (in *RealInput) Close() error {
	var errs []error
	if in.line != nil {
		if err := in.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if in.chip != nil {
		if err := in.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives a relay or LED line.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealOutput requests the pin as output, initially low.
func NewRealOutput(chipName string, pin int) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{chip: chip, line: line, pin: pin}, nil
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", o.pin, err)
	}
	return nil
}

// Close drives the line low and releases it, so a daemon restart never
// leaves the relay energized with nothing controlling it.
func (o *RealOutput) Close() error {
	var errs []error
	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pin %d: %w", o.pin, err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", o.pin, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
