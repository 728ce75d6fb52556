package sensors

import (
	"fmt"
	"math"
	"sync"

	"github.com/hollis/c210-agent/internal/telemetry"
)

// channelSpec describes one synthesized measurement channel.
type channelSpec struct {
	name  string
	kind  telemetry.Kind
	base  float64
	swing float64
}

// simTemplate drives one simulated sensor. warmup is the number of
// initial reads reported as not-initialized, modelling fix acquisition.
type simTemplate struct {
	warmup int
	chans  []channelSpec
}

// Baselines and swings are plausible for the board's environment; the
// values are synthesized, never measured. Real bus drivers are
// collaborators outside this agent.
var simTemplates = map[telemetry.SensorType]simTemplate{
	telemetry.SensorBME280: {chans: []channelSpec{
		{"Tm", telemetry.KindDouble, 24.0, 4.0},
		{"Hm", telemetry.KindDouble, 45.0, 10.0},
		{"Pr", telemetry.KindDouble, 99.1, 0.8},
	}},
	telemetry.SensorLIS2DH12: {chans: []channelSpec{
		{"Ax", telemetry.KindDouble, 0.0, 0.9},
		{"Ay", telemetry.KindDouble, 0.0, 0.9},
		{"Az", telemetry.KindDouble, 1.0, 0.1},
	}},
	telemetry.SensorADXL345: {chans: []channelSpec{
		{"Ax", telemetry.KindDouble, 0.0, 1.8},
		{"Ay", telemetry.KindDouble, 0.0, 1.8},
		{"Az", telemetry.KindDouble, 1.0, 0.2},
	}},
	telemetry.SensorLIS3MDL: {chans: []channelSpec{
		{"Mx", telemetry.KindDouble, 12.0, 35.0},
		{"My", telemetry.KindDouble, -8.0, 35.0},
		{"Mz", telemetry.KindDouble, 40.0, 20.0},
	}},
	telemetry.SensorLTR303: {chans: []channelSpec{
		{"Lx", telemetry.KindInt, 320.0, 260.0},
	}},
	telemetry.SensorMAX17048: {chans: []channelSpec{
		{"Vb", telemetry.KindDouble, 3.9, 0.25},
		{"Ch", telemetry.KindInt, 68.0, 22.0},
	}},
	telemetry.SensorMAXM10: {warmup: 3, chans: []channelSpec{
		{"Lt", telemetry.KindPosition, 51.477928, 0.000040},
		{"Ln", telemetry.KindPosition, -0.001545, 0.000040},
		{"Al", telemetry.KindDouble, 46.0, 2.5},
	}},
}

// SimDriver synthesizes deterministic readings from a slow waveform so
// the agent runs on any host. The step counter advances once per read.
type SimDriver struct {
	mu     sync.Mutex
	typ    telemetry.SensorType
	tmpl   simTemplate
	step   int
	forced telemetry.ReadStatus
}

// NewSimDriver returns the simulator for one sensor of the C210 set.
func NewSimDriver(t telemetry.SensorType) (*SimDriver, error) {
	tmpl, ok := simTemplates[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", telemetry.ErrUnknownSensor, t)
	}
	return &SimDriver{typ: t, tmpl: tmpl, forced: telemetry.ReadOK}, nil
}

// AllSimDrivers returns one simulator per sensor in stable order.
func AllSimDrivers() []Driver {
	out := make([]Driver, 0, len(telemetry.AllSensors()))
	for _, t := range telemetry.AllSensors() {
		d, err := NewSimDriver(t)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Type identifies the simulated sensor.
func (d *SimDriver) Type() telemetry.SensorType {
	return d.typ
}

// FailWith scripts every following read to report the given status.
// Passing ReadOK returns the driver to normal operation.
func (d *SimDriver) FailWith(st telemetry.ReadStatus) {
	d.mu.Lock()
	d.forced = st
	d.mu.Unlock()
}

// Read synthesizes one sample.
func (d *SimDriver) Read() telemetry.Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step++
	if d.forced != telemetry.ReadOK {
		return telemetry.Reading{Type: d.typ, Status: d.forced}
	}
	if d.step <= d.tmpl.warmup {
		return telemetry.Reading{Type: d.typ, Status: telemetry.ReadNotInitialized}
	}
	mes := make([]telemetry.Measurement, len(d.tmpl.chans))
	for i, c := range d.tmpl.chans {
		phase := float64(d.step)/5 + float64(i)*2.1
		mes[i] = telemetry.Measurement{
			Name:  c.name,
			Kind:  c.kind,
			Value: c.base + c.swing*math.Sin(phase),
		}
	}
	return telemetry.Reading{Type: d.typ, Status: telemetry.ReadOK, Measurements: mes}
}
