package button

// FakeSource is a test double that feeds scripted edges.
type FakeSource struct {
	ch chan Edge

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource with room for cap pending edges.
func NewFakeSource(capacity int) *FakeSource {
	if capacity <= 0 {
		capacity = 16
	}
	return &FakeSource{ch: make(chan Edge, capacity)}
}

// Emit queues an edge for delivery.
func (f *FakeSource) Emit(e Edge) {
	f.ch <- e
}

// Events returns the scripted edge stream.
func (f *FakeSource) Events() <-chan Edge {
	return f.ch
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
