package led

import "sync"

// FakeDriver records every frame it is asked to show. Tests inspect
// the recorded frames instead of hardware.
type FakeDriver struct {
	mu sync.Mutex

	// Frames are the applied frames in order.
	Frames []Frame

	// Closed tracks if Close was called.
	Closed bool

	// ApplyError, if set, will be returned by Apply.
	ApplyError error
}

// NewFakeDriver creates an empty FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Apply records the frame.
func (f *FakeDriver) Apply(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Frames = append(f.Frames, frame)
	return nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Last returns the most recent frame and whether any frame was applied.
func (f *FakeDriver) Last() (Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Frames) == 0 {
		return Frame{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}

// History returns a copy of all applied frames.
func (f *FakeDriver) History() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.Frames))
	copy(out, f.Frames)
	return out
}
