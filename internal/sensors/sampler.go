package sensors

import (
	"fmt"
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/telemetry"
)

// Sampler drives one sensor on its own period and feeds every reading
// to the sink. While enabled it owns one goroutine; Disable waits for
// an in-flight sample to finish, so after Disable returns the sink sees
// no further readings from this sensor.
type Sampler struct {
	driver  Driver
	sink    ReadingSink
	metrics *observability.Metrics

	mu      sync.Mutex
	period  time.Duration
	enabled bool
	stop    chan struct{}
	done    chan struct{}
	reset   chan time.Duration
}

// NewSampler wraps a driver. A non-positive period selects the default.
// metrics may be nil.
func NewSampler(driver Driver, sink ReadingSink, metrics *observability.Metrics, period time.Duration) *Sampler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Sampler{driver: driver, sink: sink, metrics: metrics, period: period}
}

// Type identifies the sensor this sampler drives.
func (s *Sampler) Type() telemetry.SensorType {
	return s.driver.Type()
}

// Enabled reports whether the periodic loop is running.
func (s *Sampler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Period returns the configured sampling period.
func (s *Sampler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Enable starts the periodic loop. Enabling a running sampler is a
// no-op.
func (s *Sampler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.reset = make(chan time.Duration, 1)
	go s.run(s.period, s.stop, s.done, s.reset)
}

// Disable stops the periodic loop and waits for it to exit. Disabling
// a stopped sampler is a no-op.
func (s *Sampler) Disable() {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = false
	stop, done := s.stop, s.done
	s.mu.Unlock()
	close(stop)
	<-done
}

// SetPeriod reconfigures the sampling period, taking effect on the
// running loop immediately.
func (s *Sampler) SetPeriod(p time.Duration) error {
	if p < MinPeriod {
		return fmt.Errorf("period %v below minimum %v: %w", p, MinPeriod, ErrInvalidParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
	if s.enabled {
		select {
		case s.reset <- p:
		default:
			// Replace a pending reset rather than queue behind it.
			select {
			case <-s.reset:
			default:
			}
			s.reset <- p
		}
	}
	return nil
}

// ReadOnce samples the sensor immediately, outside the periodic loop.
// The reading is returned to the caller instead of the sink.
func (s *Sampler) ReadOnce() telemetry.Reading {
	r := s.driver.Read()
	s.metrics.ReadingObserved(string(r.Type), string(r.Status))
	return r
}

func (s *Sampler) run(period time.Duration, stop <-chan struct{}, done chan<- struct{}, reset <-chan time.Duration) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case p := <-reset:
			ticker.Reset(p)
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	r := s.driver.Read()
	s.metrics.ReadingObserved(string(r.Type), string(r.Status))
	s.sink.Consume(r)
}
