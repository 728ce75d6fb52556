// Package mode tracks the device aggregation mode and arbitrates
// which button owns an in-progress gesture.
package mode

import "sync"

// Mode is the aggregation mode the device is running in.
type Mode int

const (
	Disabled Mode = iota
	OverWifi
	OverCellular
)

// String returns the mode name used in logs and status documents.
func (m Mode) String() string {
	switch m {
	case OverWifi:
		return "wifi"
	case OverCellular:
		return "cellular"
	default:
		return "disabled"
	}
}

// Owner identifies the holder of the gesture lock.
type Owner int

const (
	OwnerNone Owner = iota
	OwnerButton1
	OwnerButton2
)

// String returns the owner name used in logs.
func (o Owner) String() string {
	switch o {
	case OwnerButton1:
		return "button1"
	case OwnerButton2:
		return "button2"
	default:
		return "none"
	}
}

// Lock is the gesture lock. The first button to start a press sequence
// acquires it; edges from the other button are ignored until release.
type Lock struct {
	mu    sync.Mutex
	owner Owner
}

// TryAcquire claims the lock for o. It returns true if the lock was free
// or already held by o. Acquiring for OwnerNone always fails.
func (l *Lock) TryAcquire(o Owner) bool {
	if o == OwnerNone {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != OwnerNone && l.owner != o {
		return false
	}
	l.owner = o
	return true
}

// Release frees the lock if o holds it. A release by a non-owner is a no-op.
func (l *Lock) Release(o Owner) {
	l.mu.Lock()
	if l.owner == o {
		l.owner = OwnerNone
	}
	l.mu.Unlock()
}

// Owner returns the current holder of the lock.
func (l *Lock) Owner() Owner {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// State holds the aggregation mode and the busy flag that guards
// mode changes. A gesture or console command may only start a change
// after TryBegin succeeds; Finish records the resulting mode and
// reopens the gate.
type State struct {
	mu   sync.Mutex
	mode Mode
	busy bool
}

// NewState returns a State in Disabled mode with the gate open.
func NewState() *State {
	return &State{}
}

// Mode returns the current aggregation mode.
func (s *State) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Busy reports whether a mode change is in progress.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Current returns the mode and busy flag as one consistent pair.
func (s *State) Current() (Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.busy
}

// TryBegin claims the busy flag. It returns false if a change is
// already in progress.
func (s *State) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// Finish records the mode the change ended in and clears the busy flag.
func (s *State) Finish(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.busy = false
	s.mu.Unlock()
}
