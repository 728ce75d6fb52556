package transport

import "sync"

// FakeClient scripts an uplink for tests.
type FakeClient struct {
	mu sync.Mutex

	// state is what Status reports. Connect sets it to Connected
	// unless ConnectError is set; SetStatus overrides it directly.
	state Status

	// Messages records every successful publish.
	Messages []Message

	// ConnectError, if set, is returned by Connect.
	ConnectError error

	// PublishError, if set, is returned by Publish.
	PublishError error

	// Connects and Disconnects count lifecycle calls.
	Connects    int
	Disconnects int
}

// NewFakeClient returns a fake uplink reporting the given state.
func NewFakeClient(st Status) *FakeClient {
	return &FakeClient{state: st}
}

// SetStatus scripts the state Status reports.
func (f *FakeClient) SetStatus(st Status) {
	f.mu.Lock()
	f.state = st
	f.mu.Unlock()
}

// Connect marks the session connected unless ConnectError is set.
func (f *FakeClient) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connects++
	if f.ConnectError != nil {
		return f.ConnectError
	}
	f.state = StatusConnected
	return nil
}

// Disconnect marks the session closed.
func (f *FakeClient) Disconnect() {
	f.mu.Lock()
	f.Disconnects++
	f.state = StatusClosed
	f.mu.Unlock()
}

// Status reports the scripted state.
func (f *FakeClient) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Publish records the message unless PublishError is set.
func (f *FakeClient) Publish(m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, m)
	return nil
}

// Published returns a copy of the recorded messages.
func (f *FakeClient) Published() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.Messages...)
}
