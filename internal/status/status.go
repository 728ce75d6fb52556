// Package status provides a thread-safe status tracker for the agent.
// It is read by the HTTP handlers, the serial console, and the system
// event publisher.
package status

import (
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/mode"
)

// TransportInfo reports the two uplink states as strings
// (closed, open, connected).
type TransportInfo struct {
	Wifi     string
	Cellular string
}

// Counters accumulates agent activity totals since startup.
type Counters struct {
	CyclesPublished int
	CyclesDropped   int // complete but no transport connected
	CyclesDiscarded int // reset by formatting error or overflow
	PublishErrors   int
	Gestures        int
}

// Config contains agent configuration for display.
type Config struct {
	Device      string
	Broker      string
	HTTPAddr    string
	Console     string
	DebounceMs  int64
	LongPressMs int64
	PeriodMs    int64
	MaxPayload  int
}

// Snapshot is a point-in-time view of agent state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	BootID    string
	Mode      mode.Mode
	Busy      bool
	Owner     mode.Owner
	Transport TransportInfo
	Counters  Counters
	StartTime time.Time
	Now       time.Time
	Config    Config
	Events    []Event
}

// Uptime returns the duration since the agent started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable agent state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	ring *eventRing
}

// NewTracker creates a Tracker with the given start time, boot id and
// config. The event history keeps the most recent DefaultHistory lines.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			BootID:    bootID,
			StartTime: startTime,
			Config:    cfg,
			Transport: TransportInfo{Wifi: "closed", Cellular: "closed"},
		},
		ring: newEventRing(DefaultHistory),
	}
}

// SetMode records the aggregation mode and busy flag.
func (t *Tracker) SetMode(m mode.Mode, busy bool) {
	t.mu.Lock()
	t.snap.Mode = m
	t.snap.Busy = busy
	t.mu.Unlock()
}

// SetOwner records the gesture lock owner.
func (t *Tracker) SetOwner(o mode.Owner) {
	t.mu.Lock()
	t.snap.Owner = o
	t.mu.Unlock()
}

// SetTransport records the uplink states.
func (t *Tracker) SetTransport(wifi, cellular string) {
	t.mu.Lock()
	t.snap.Transport = TransportInfo{Wifi: wifi, Cellular: cellular}
	t.mu.Unlock()
}

// CyclePublished counts a completed cycle that reached a transport.
func (t *Tracker) CyclePublished() {
	t.mu.Lock()
	t.snap.Counters.CyclesPublished++
	t.mu.Unlock()
}

// CycleDropped counts a completed cycle discarded for lack of transport.
func (t *Tracker) CycleDropped() {
	t.mu.Lock()
	t.snap.Counters.CyclesDropped++
	t.mu.Unlock()
}

// CycleDiscarded counts a cycle reset by a formatting error or overflow.
func (t *Tracker) CycleDiscarded() {
	t.mu.Lock()
	t.snap.Counters.CyclesDiscarded++
	t.mu.Unlock()
}

// PublishError counts a failed publish attempt.
func (t *Tracker) PublishError() {
	t.mu.Lock()
	t.snap.Counters.PublishErrors++
	t.mu.Unlock()
}

// GestureObserved counts a completed button gesture.
func (t *Tracker) GestureObserved() {
	t.mu.Lock()
	t.snap.Counters.Gestures++
	t.mu.Unlock()
}

// AddEvent appends a line to the event history, overwriting the oldest
// entry once the history is full.
func (t *Tracker) AddEvent(ts time.Time, text string) {
	t.mu.Lock()
	t.ring.push(Event{Time: ts, Text: text})
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the agent state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Events = t.ring.list()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
