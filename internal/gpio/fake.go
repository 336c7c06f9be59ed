package gpio

import (
	"errors"
	"sync"
)

// FakeInput is a test double for the button line. Tests set the level and
// fire edges explicitly.
type FakeInput struct {
	mu sync.Mutex

	// Level is the current logical level returned by Pressed.
	Level bool

	// ReadError, if set, is returned by Pressed.
	ReadError error

	// Closed tracks whether Close was called.
	Closed bool

	fn func()
}

// NewFakeInput creates a released (Level=false) fake button.
func NewFakeInput() *FakeInput {
	return &FakeInput{}
}

// Pressed returns the scripted level.
func (f *FakeInput) Pressed() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Level, nil
}

// Subscribe records the edge callback.
func (f *FakeInput) Subscribe(fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fn != nil {
		return errors.New("already subscribed")
	}
	f.fn = fn
	return nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// SetLevel changes the level without firing an edge.
func (f *FakeInput) SetLevel(pressed bool) {
	f.mu.Lock()
	f.Level = pressed
	f.mu.Unlock()
}

// Edge fires one edge event to the subscriber.
func (f *FakeInput) Edge() {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Bounce sets the level and fires n edges, simulating contact bounce.
func (f *FakeInput) Bounce(pressed bool, n int) {
	f.SetLevel(pressed)
	for i := 0; i < n; i++ {
		f.Edge()
	}
}

// FakeOutput is a test double for a relay or LED line.
type FakeOutput struct {
	mu sync.Mutex

	// History records every Set call.
	History []bool

	// SetError, if set, is returned by Set.
	SetError error

	// Closed tracks whether Close was called.
	Closed bool

	on bool
}

// NewFakeOutput creates a FakeOutput, initially off.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the new state.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	f.History = append(f.History, on)
	return nil
}

// On returns the current state.
func (f *FakeOutput) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
