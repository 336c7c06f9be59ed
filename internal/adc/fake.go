package adc

// FakeReader is a test double returning scripted raw codes.
type FakeReader struct {
	// Samples are returned in order by ReadRaw; once exhausted the last
	// sample repeats.
	Samples []int16

	// Errs, if non-nil, is consulted per call: a non-nil entry is returned
	// instead of the sample at the same index.
	Errs []error

	// Calls counts ReadRaw invocations.
	Calls int

	// Closed tracks whether Close was called.
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...int16) *FakeReader {
	return &FakeReader{Samples: samples}
}

// ReadRaw returns the next scripted sample or error.
func (f *FakeReader) ReadRaw() (int16, error) {
	i := f.index
	f.Calls++
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	if i < len(f.Errs) && f.Errs[i] != nil {
		return 0, f.Errs[i]
	}
	if len(f.Samples) == 0 {
		return 0, ErrNoSamples
	}
	return f.Samples[i], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
