// Package aggregation implements the aggregation function: the
// machinery behind an active mode. Starting a mode connects that
// mode's uplink and bulk-enables the samplers on the shared period;
// every reading then flows through the shared accumulator and out as
// one aggregated document per cycle. With aggregation disabled the
// same sink routes readings as standalone per-sensor documents.
package aggregation

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/sensors"
	"github.com/hollis/c210-agent/internal/status"
	"github.com/hollis/c210-agent/internal/telemetry"
	"github.com/hollis/c210-agent/internal/transport"
)

// Deps carries the collaborators the function drives. Tracker and
// Metrics may be nil.
type Deps struct {
	State     *mode.State
	Manager   *sensors.Manager
	Assembler *telemetry.Assembler
	Publisher *transport.Publisher
	Wifi      transport.Client
	Cell      transport.Client
	Tracker   *status.Tracker
	Metrics   *observability.Metrics
}

// Function is the aggregation function. It satisfies both the
// dispatcher's pipeline contract (Start/Stop/Settled) and the
// samplers' sink contract (Consume).
type Function struct {
	deps       Deps
	maxEncoded int

	mu       sync.Mutex
	period   time.Duration
	active   mode.Mode
	stopping bool
}

// NewFunction wires the aggregation function. A non-positive period
// selects the default shared period; maxEncoded of zero selects the
// codec default.
func NewFunction(deps Deps, period time.Duration, maxEncoded int) *Function {
	if period <= 0 {
		period = sensors.DefaultAggregationPeriod
	}
	if maxEncoded <= 0 {
		maxEncoded = telemetry.DefaultMaxEncoded
	}
	return &Function{deps: deps, maxEncoded: maxEncoded, period: period}
}

// Start connects the uplink for m and enables every sampler on the
// shared period. The dispatcher holds the busy flag across this call.
func (f *Function) Start(m mode.Mode) error {
	if m != mode.OverWifi && m != mode.OverCellular {
		return fmt.Errorf("cannot start aggregation into %s: %w", m, sensors.ErrInvalidParam)
	}
	f.mu.Lock()
	if f.stopping {
		f.mu.Unlock()
		return fmt.Errorf("teardown in progress: %w", sensors.ErrBusy)
	}
	if f.active != mode.Disabled {
		f.mu.Unlock()
		return fmt.Errorf("aggregation over %s already running: %w", f.active, sensors.ErrInvalidState)
	}
	client := f.clientFor(m)
	period := f.period
	f.mu.Unlock()

	if err := client.Connect(); err != nil {
		f.publishTransportStatus()
		return fmt.Errorf("connect for %s: %w", m, err)
	}
	f.publishTransportStatus()

	f.mu.Lock()
	f.deps.Assembler.Reset()
	f.active = m
	f.mu.Unlock()

	if err := f.deps.Manager.EnableAll(period); err != nil {
		f.deps.Manager.DisableAll()
		f.mu.Lock()
		f.active = mode.Disabled
		f.mu.Unlock()
		client.Disconnect()
		f.publishTransportStatus()
		return fmt.Errorf("enable samplers: %w", err)
	}
	log.Printf("aggregation: running over %s, shared period %v", m, period)
	return nil
}

// Stop begins teardown and returns immediately; Settled reports when
// the teardown goroutine has finished. Stopping an idle function is a
// no-op.
func (f *Function) Stop() {
	f.mu.Lock()
	if f.active == mode.Disabled || f.stopping {
		f.mu.Unlock()
		return
	}
	f.stopping = true
	client := f.clientFor(f.active)
	f.mu.Unlock()

	go f.teardown(client)
}

// Settled reports whether the function is at rest: not running
// teardown. The dispatcher polls this between stop and start.
func (f *Function) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.stopping
}

// Active returns the mode the function is currently running.
func (f *Function) Active() mode.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Period returns the shared aggregation period.
func (f *Function) Period() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.period
}

// SetPeriod reconfigures the shared aggregation period. Rejected while
// aggregation is active or a mode change is in flight.
func (f *Function) SetPeriod(p time.Duration) error {
	if p < sensors.MinPeriod {
		return fmt.Errorf("period %v below minimum %v: %w", p, sensors.MinPeriod, sensors.ErrInvalidParam)
	}
	if f.deps.State != nil && f.deps.State.Busy() {
		return fmt.Errorf("aggregation changing: %w", sensors.ErrBusy)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopping {
		return fmt.Errorf("teardown in progress: %w", sensors.ErrBusy)
	}
	if f.active != mode.Disabled {
		return fmt.Errorf("aggregation over %s active: %w", f.active, sensors.ErrInvalidState)
	}
	f.period = p
	return nil
}

// Consume routes one reading: into the shared accumulator while a mode
// is active, out as a standalone document while aggregation is
// disabled, dropped during teardown. The whole submit-publish-reset
// sequence runs under one mutex so concurrent samplers never
// interleave a cycle.
func (f *Function) Consume(r telemetry.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.stopping:
		return
	case f.active == mode.Disabled:
		f.publishStandalone(r)
	default:
		f.submitAggregated(r)
	}
}

func (f *Function) submitAggregated(r telemetry.Reading) {
	complete, payload, err := f.deps.Assembler.Submit(r)
	if err != nil {
		log.Printf("aggregation: submit %s: %v", r.Type, err)
		if errors.Is(err, telemetry.ErrBufferOverflow) || errors.Is(err, telemetry.ErrInvalidReading) {
			if f.deps.Tracker != nil {
				f.deps.Tracker.CycleDiscarded()
			}
			f.deps.Metrics.CycleFinished("discarded")
		}
		return
	}
	if !complete {
		return
	}

	err = f.deps.Publisher.PublishAggregated(payload)
	switch {
	case errors.Is(err, transport.ErrNoTransport):
		log.Printf("aggregation: cycle dropped, no transport connected")
		if f.deps.Tracker != nil {
			f.deps.Tracker.CycleDropped()
		}
		f.deps.Metrics.CycleFinished("dropped")
	case err != nil:
		log.Printf("aggregation: publish cycle: %v", err)
		if f.deps.Tracker != nil {
			f.deps.Tracker.CycleDropped()
		}
		f.deps.Metrics.CycleFinished("error")
	default:
		if f.deps.Tracker != nil {
			f.deps.Tracker.CyclePublished()
		}
		f.deps.Metrics.CycleFinished("published")
	}
	f.publishTransportStatus()
}

func (f *Function) publishStandalone(r telemetry.Reading) {
	payload, err := telemetry.EncodeReading(r, f.maxEncoded)
	if err != nil {
		log.Printf("standalone %s: %v", r.Type, err)
		return
	}
	if err := f.deps.Publisher.PublishSensor(r.Type, payload); err != nil {
		log.Printf("standalone publish %s: %v", r.Type, err)
	}
}

// teardown runs off the dispatcher goroutine: the poll loop over
// Settled is what serializes it with the next start.
func (f *Function) teardown(client transport.Client) {
	f.deps.Manager.DisableAll()

	f.mu.Lock()
	f.deps.Assembler.Reset()
	f.mu.Unlock()

	client.Disconnect()

	f.mu.Lock()
	f.active = mode.Disabled
	f.stopping = false
	f.mu.Unlock()

	f.publishTransportStatus()
	log.Printf("aggregation: teardown complete")
}

func (f *Function) clientFor(m mode.Mode) transport.Client {
	if m == mode.OverCellular {
		return f.deps.Cell
	}
	return f.deps.Wifi
}

func (f *Function) publishTransportStatus() {
	if f.deps.Tracker == nil {
		return
	}
	wifi, cell := f.deps.Publisher.Statuses()
	f.deps.Tracker.SetTransport(wifi.String(), cell.String())
}
