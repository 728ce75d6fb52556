package button

import (
	"log"
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/dispatch"
	"github.com/hollis/c210-agent/internal/led"
	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/status"
)

// ActionSink receives accepted long-press actions. The dispatcher
// implements it; Submit returns false while a change is in progress.
type ActionSink interface {
	Submit(a dispatch.Action) bool
}

// Busy-rejection feedback pattern: the fast red error blink.
const (
	rejectOnMs  = 100
	rejectOffMs = 100
	rejectCount = 3
)

// gestureState tracks one button's debounce and gesture progress.
// It is owned by the Run goroutine.
type gestureState struct {
	pressed    bool      // last stable logical level
	lastStable time.Time // when the level last changed
	gesture    bool      // lock held, press in progress
	fired      bool      // long press already dispatched
	deadline   time.Time // long-press deadline
	snapshot   led.Status
}

// Monitor turns debounced edges into gestures: it arbitrates the
// gesture lock, shows press feedback on the LED, and fires long-press
// actions into the sink. Both buttons share one mechanism: a deadline
// armed on press, checked on every tick and re-checked on release so a
// release exactly at the threshold still counts as a long press.
type Monitor struct {
	lock    *mode.Lock
	leds    *led.Controller
	sink    ActionSink
	tracker *status.Tracker
	metrics *observability.Metrics

	debounce  time.Duration
	longPress time.Duration
	tickEvery time.Duration
	sleep     func(time.Duration)

	buttons [2]gestureState

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewMonitor wires a gesture monitor. tracker and metrics may be nil.
// Non-positive durations select the defaults.
func NewMonitor(lock *mode.Lock, leds *led.Controller, sink ActionSink, tracker *status.Tracker, metrics *observability.Metrics, debounce, longPress time.Duration) *Monitor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	return &Monitor{
		lock:      lock,
		leds:      leds,
		sink:      sink,
		tracker:   tracker,
		metrics:   metrics,
		debounce:  debounce,
		longPress: longPress,
		tickEvery: DefaultTickEvery,
		sleep:     time.Sleep,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the monitor goroutine with an internal deadline ticker.
func (m *Monitor) Start(events <-chan Edge) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()
	go func() {
		ticker := time.NewTicker(m.tickEvery)
		defer ticker.Stop()
		m.Run(events, ticker.C)
	}()
}

// Stop terminates the monitor. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stop) })
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

// Run processes edges and deadline ticks until Stop. Factored out of
// Start so tests can drive it with manual channels.
func (m *Monitor) Run(events <-chan Edge, tick <-chan time.Time) {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case e := <-events:
			m.handleEdge(e)
		case now := <-tick:
			m.handleTick(now)
		}
	}
}

func (m *Monitor) handleEdge(e Edge) {
	idx := index(e.Button)
	if idx < 0 {
		return
	}
	b := &m.buttons[idx]
	if e.Pressed == b.pressed {
		return // repeated level, bounce
	}
	if e.Time.Sub(b.lastStable) < m.debounce {
		return // inside the stability window
	}
	b.pressed = e.Pressed
	b.lastStable = e.Time
	if e.Pressed {
		m.pressedEdge(e.Button, b, e.Time)
	} else {
		m.releasedEdge(e.Button, b, e.Time)
	}
}

func (m *Monitor) handleTick(now time.Time) {
	for i := range m.buttons {
		b := &m.buttons[i]
		if b.gesture && !b.fired && !now.Before(b.deadline) {
			m.fire(buttonAt(i), b, now)
		}
	}
}

func (m *Monitor) pressedEdge(id ID, b *gestureState, now time.Time) {
	owner := ownerOf(id)
	if !m.lock.TryAcquire(owner) {
		log.Printf("button: %s press ignored, lock held by %s", id, m.lock.Owner())
		m.metrics.GestureObserved(id.String(), "ignored")
		return
	}
	if m.tracker != nil {
		m.tracker.SetOwner(owner)
	}
	b.gesture = true
	b.fired = false
	b.deadline = now.Add(m.longPress)
	b.snapshot = m.leds.GetStatus()
	m.leds.On(pressColor(id))
	log.Printf("button: %s pressed", id)
}

func (m *Monitor) releasedEdge(id ID, b *gestureState, now time.Time) {
	if !b.gesture {
		return // the press was ignored, nothing to close out
	}
	if !b.fired && !now.Before(b.deadline) {
		// The release itself crossed the threshold.
		m.fire(id, b, now)
	}
	fired := b.fired
	snap := b.snapshot
	b.gesture = false
	b.fired = false
	m.lock.Release(ownerOf(id))
	if m.tracker != nil {
		m.tracker.SetOwner(mode.OwnerNone)
		m.tracker.GestureObserved()
	}
	if fired {
		log.Printf("button: %s released after long press", id)
		return // the dispatcher owns the LED from here
	}
	log.Printf("button: %s short press", id)
	m.metrics.GestureObserved(id.String(), "short")
	if err := m.leds.ResumeStatus(snap); err != nil {
		log.Printf("button: restore led: %v", err)
	}
}

// fire dispatches the long press. On rejection the busy blink starts
// immediately; the pre-press pattern is restored once it has played.
func (m *Monitor) fire(id ID, b *gestureState, now time.Time) {
	b.fired = true
	a := dispatch.Action{Target: targetMode(id), Origin: id.String(), Color: pressColor(id), Time: now}
	if m.sink.Submit(a) {
		log.Printf("button: %s long press accepted (%s)", id, a.Target)
		m.metrics.GestureObserved(id.String(), "accepted")
		return
	}
	log.Printf("button: %s long press rejected, change in progress", id)
	m.metrics.GestureObserved(id.String(), "rejected")
	if m.tracker != nil {
		m.tracker.AddEvent(now, id.String()+" gesture rejected while busy")
	}
	if err := m.leds.Blink(led.Red, rejectOnMs, rejectOffMs, rejectCount); err != nil {
		log.Printf("button: reject blink: %v", err)
		return
	}
	go m.restoreAfter(time.Duration(rejectCount*(rejectOnMs+rejectOffMs))*time.Millisecond, b.snapshot)
}

// restoreAfter waits out a feedback pattern, then restores the LED.
func (m *Monitor) restoreAfter(d time.Duration, snap led.Status) {
	m.sleep(d)
	if err := m.leds.ResumeStatus(snap); err != nil {
		log.Printf("button: restore led: %v", err)
	}
}

func index(id ID) int {
	switch id {
	case Button1:
		return 0
	case Button2:
		return 1
	default:
		return -1
	}
}

func buttonAt(i int) ID {
	return ID(i + 1)
}

func ownerOf(id ID) mode.Owner {
	if id == Button2 {
		return mode.OwnerButton2
	}
	return mode.OwnerButton1
}

// pressColor is the steady color shown while a button is held.
func pressColor(id ID) led.Color {
	if id == Button2 {
		return led.Purple
	}
	return led.Blue
}

// targetMode is the aggregation mode a button commands.
func targetMode(id ID) mode.Mode {
	if id == Button2 {
		return mode.OverCellular
	}
	return mode.OverWifi
}
