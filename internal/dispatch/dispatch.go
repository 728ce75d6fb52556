// Package dispatch serializes aggregation mode changes. One worker
// goroutine processes accepted actions; the busy flag in mode.State
// gates admission so a change in progress rejects new gestures.
package dispatch

import (
	"log"
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/led"
	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/status"
)

// Action is a requested aggregation mode change. Target OverWifi or
// OverCellular toggles or starts that mode; Target Disabled stops
// whatever mode is running. Color is the requesting gesture's color,
// shown by the confirmation blink.
type Action struct {
	Target mode.Mode
	Origin string // "button1", "button2", "console"
	Color  led.Color
	Time   time.Time
}

// Pipeline brings the aggregation machinery up and down. The
// aggregation function implements it; fakes stand in for tests.
type Pipeline interface {
	// Start connects the transport for m and enables the samplers.
	Start(m mode.Mode) error

	// Stop disables the samplers and begins transport teardown.
	Stop()

	// Settled reports whether teardown has completed.
	Settled() bool
}

// LED feedback patterns. The worker sleeps for the pattern length so
// the operator sees the full pattern before the next phase replaces it.
const (
	confirmOnMs  = 100
	confirmOffMs = 100
	confirmCount = 3

	failOnMs  = 100
	failOffMs = 100
	failCount = 3

	connectRampMs = 500
)

// DefaultPollInterval is the teardown poll spacing; defaultMaxPolls
// bounds how long a stop waits before giving up on a clean teardown.
const (
	DefaultPollInterval = time.Second
	defaultMaxPolls     = 10
)

// Dispatcher owns the pending action slot and the worker goroutine.
type Dispatcher struct {
	state    *mode.State
	pipeline Pipeline
	leds     *led.Controller
	tracker  *status.Tracker
	metrics  *observability.Metrics

	pollEvery time.Duration
	maxPolls  int
	sleep     func(time.Duration)

	mu      sync.Mutex
	pending *Action

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
}

// NewDispatcher wires the worker. tracker and metrics may be nil.
// A non-positive pollEvery selects DefaultPollInterval.
func NewDispatcher(state *mode.State, pipeline Pipeline, leds *led.Controller, tracker *status.Tracker, metrics *observability.Metrics, pollEvery time.Duration) *Dispatcher {
	if pollEvery <= 0 {
		pollEvery = DefaultPollInterval
	}
	return &Dispatcher{
		state:     state,
		pipeline:  pipeline,
		leds:      leds,
		tracker:   tracker,
		metrics:   metrics,
		pollEvery: pollEvery,
		maxPolls:  defaultMaxPolls,
		sleep:     time.Sleep,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Submit hands an action to the worker. It returns false when a change
// is already in progress; the caller owns the rejection feedback.
func (d *Dispatcher) Submit(a Action) bool {
	if !d.state.TryBegin() {
		return false
	}
	d.mu.Lock()
	d.pending = &a
	d.mu.Unlock()
	if d.tracker != nil {
		d.tracker.SetMode(d.state.Mode(), true)
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()
	go d.run()
}

// Stop terminates the worker after the action in flight, if any,
// completes. It is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if started {
		<-d.done
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
			d.drain()
		}
	}
}

// drain processes the pending action, if any.
func (d *Dispatcher) drain() {
	d.mu.Lock()
	a := d.pending
	d.pending = nil
	d.mu.Unlock()
	if a != nil {
		d.process(*a)
	}
}

func (d *Dispatcher) process(a Action) {
	cur := d.state.Mode()
	log.Printf("dispatch: %s -> %s (from %s)", cur, a.Target, a.Origin)

	switch {
	case a.Target == mode.Disabled && cur == mode.Disabled:
		// Nothing running; release the busy flag and move on.
		d.finish(mode.Disabled, "")
	case a.Target == mode.Disabled || a.Target == cur:
		d.confirmFeedback(a.Color)
		d.stopCurrent(cur)
		d.leds.Off()
		d.finish(mode.Disabled, "aggregation "+cur.String()+" stopped")
	case cur == mode.Disabled:
		d.confirmFeedback(a.Color)
		d.startInto(a.Target)
	default:
		d.confirmFeedback(a.Color)
		d.stopCurrent(cur)
		d.startInto(a.Target)
	}
}

// stopCurrent begins teardown and polls until the pipeline settles or
// the poll budget runs out.
func (d *Dispatcher) stopCurrent(cur mode.Mode) {
	d.pipeline.Stop()
	for i := 0; i < d.maxPolls; i++ {
		if d.pipeline.Settled() {
			return
		}
		d.sleep(d.pollEvery)
	}
	if !d.pipeline.Settled() {
		log.Printf("dispatch: %s teardown still pending after %v", cur, time.Duration(d.maxPolls)*d.pollEvery)
	}
}

func (d *Dispatcher) startInto(target mode.Mode) {
	color := ModeColor(target)
	if err := d.leds.Fade(color, connectRampMs, connectRampMs, -1); err != nil {
		log.Printf("dispatch: connect fade: %v", err)
	}

	if err := d.pipeline.Start(target); err != nil {
		log.Printf("dispatch: start %s: %v", target, err)
		d.failFeedback()
		d.leds.Off()
		d.finish(mode.Disabled, "aggregation "+target.String()+" start failed")
		return
	}

	d.leds.On(color)
	d.finish(target, "aggregation "+target.String()+" started")
}

// finish records the resulting mode and releases the busy flag.
func (d *Dispatcher) finish(m mode.Mode, event string) {
	d.state.Finish(m)
	if d.tracker != nil {
		d.tracker.SetMode(m, false)
		if event != "" {
			d.tracker.AddEvent(time.Now(), event)
		}
	}
	d.metrics.SetAggregationMode(float64(m))
	if event != "" {
		log.Printf("dispatch: %s", event)
	}
}

// confirmFeedback shows the gesture-accepted blink in the requesting
// gesture's color and waits it out.
func (d *Dispatcher) confirmFeedback(c led.Color) {
	if err := d.leds.Blink(c, confirmOnMs, confirmOffMs, confirmCount); err != nil {
		log.Printf("dispatch: confirm blink: %v", err)
		return
	}
	d.sleep(time.Duration(confirmCount*(confirmOnMs+confirmOffMs)) * time.Millisecond)
}

// failFeedback shows the failure blink and waits it out.
func (d *Dispatcher) failFeedback() {
	if err := d.leds.Blink(led.Red, failOnMs, failOffMs, failCount); err != nil {
		log.Printf("dispatch: failure blink: %v", err)
		return
	}
	d.sleep(time.Duration(failCount*(failOnMs+failOffMs)) * time.Millisecond)
}

// ModeColor is the steady LED color of an active aggregation mode.
func ModeColor(m mode.Mode) led.Color {
	if m == mode.OverCellular {
		return led.Cyan
	}
	return led.Green
}
