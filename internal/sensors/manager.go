package sensors

import (
	"fmt"
	"sync"
	"time"

	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/telemetry"
)

// Manager owns the per-sensor samplers and enforces the configuration
// guards: individual sensor configuration is only allowed while
// aggregation is Disabled and no mode change is in flight. The bulk
// operations bypass the guards; the dispatcher's busy flag is what
// serializes them against everything else.
type Manager struct {
	state    *mode.State
	mu       sync.Mutex
	order    []telemetry.SensorType
	samplers map[telemetry.SensorType]*Sampler
}

// Info is one sensor's configuration as shown by the shell and the
// status page.
type Info struct {
	Type    telemetry.SensorType
	Enabled bool
	Period  time.Duration
}

// NewManager builds one sampler per driver. period is the custom-mode
// default for every sensor; metrics may be nil.
func NewManager(state *mode.State, drivers []Driver, sink ReadingSink, metrics *observability.Metrics, period time.Duration) *Manager {
	m := &Manager{
		state:    state,
		samplers: make(map[telemetry.SensorType]*Sampler, len(drivers)),
	}
	for _, d := range drivers {
		t := d.Type()
		if _, ok := m.samplers[t]; ok {
			continue
		}
		m.order = append(m.order, t)
		m.samplers[t] = NewSampler(d, sink, metrics, period)
	}
	return m
}

// List returns every sensor's configuration in stable order.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.order))
	for _, t := range m.order {
		s := m.samplers[t]
		out = append(out, Info{Type: t, Enabled: s.Enabled(), Period: s.Period()})
	}
	return out
}

// Enable starts one sensor's periodic sampling.
func (m *Manager) Enable(t telemetry.SensorType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sampler(t)
	if err != nil {
		return err
	}
	if err := m.guard(); err != nil {
		return err
	}
	s.Enable()
	return nil
}

// Disable stops one sensor's periodic sampling.
func (m *Manager) Disable(t telemetry.SensorType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sampler(t)
	if err != nil {
		return err
	}
	if err := m.guard(); err != nil {
		return err
	}
	s.Disable()
	return nil
}

// SetPeriod reconfigures one sensor's sampling period.
func (m *Manager) SetPeriod(t telemetry.SensorType, p time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sampler(t)
	if err != nil {
		return err
	}
	if err := m.guard(); err != nil {
		return err
	}
	return s.SetPeriod(p)
}

// ReadOnce samples one sensor immediately and returns the reading for
// a standalone publish. It is guarded like any other individual
// configuration operation.
func (m *Manager) ReadOnce(t telemetry.SensorType) (telemetry.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sampler(t)
	if err != nil {
		return telemetry.Reading{}, err
	}
	if err := m.guard(); err != nil {
		return telemetry.Reading{}, err
	}
	return s.ReadOnce(), nil
}

// EnableAll switches every sensor to the shared aggregation period and
// starts it. Called by the aggregation function while the busy flag is
// held.
func (m *Manager) EnableAll(period time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.order {
		s := m.samplers[t]
		if err := s.SetPeriod(period); err != nil {
			return fmt.Errorf("sensor %s: %w", t, err)
		}
		s.Enable()
	}
	return nil
}

// DisableAll stops every sensor and waits for in-flight samples. After
// it returns the sink is quiet.
func (m *Manager) DisableAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.order {
		m.samplers[t].Disable()
	}
}

// Probe samples every sensor once in stable order, bypassing the
// periodic loops. Used by the probe subcommand.
func (m *Manager) Probe() []telemetry.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.Reading, 0, len(m.order))
	for _, t := range m.order {
		out = append(out, m.samplers[t].ReadOnce())
	}
	return out
}

// sampler resolves a sensor id. Callers hold m.mu.
func (m *Manager) sampler(t telemetry.SensorType) (*Sampler, error) {
	s, ok := m.samplers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", telemetry.ErrUnknownSensor, t)
	}
	return s, nil
}

// guard rejects individual configuration while aggregation owns the
// sensors. Callers hold m.mu.
func (m *Manager) guard() error {
	cur, busy := m.state.Current()
	if busy {
		return fmt.Errorf("aggregation changing: %w", ErrBusy)
	}
	if cur != mode.Disabled {
		return fmt.Errorf("aggregation over %s active: %w", cur, ErrInvalidState)
	}
	return nil
}
