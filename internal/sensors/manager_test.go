package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/telemetry"
)

// discardSink drops readings.
type discardSink struct{}

func (discardSink) Consume(telemetry.Reading) {}

func newTestManager(sink ReadingSink) (*Manager, *mode.State) {
	if sink == nil {
		sink = discardSink{}
	}
	state := mode.NewState()
	return NewManager(state, AllSimDrivers(), sink, nil, time.Second), state
}

func TestManagerListOrder(t *testing.T) {
	m, _ := newTestManager(nil)
	infos := m.List()
	want := telemetry.AllSensors()
	if len(infos) != len(want) {
		t.Fatalf("got %d sensors, want %d", len(infos), len(want))
	}
	for i, info := range infos {
		if info.Type != want[i] {
			t.Errorf("position %d: %s, want %s", i, info.Type, want[i])
		}
		if info.Enabled {
			t.Errorf("%s enabled at boot", info.Type)
		}
		if info.Period != time.Second {
			t.Errorf("%s period = %v, want 1s", info.Type, info.Period)
		}
	}
}

func TestManagerGuards(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *mode.State)
		wantErr error
	}{
		{
			name:    "aggregation active",
			prepare: func(s *mode.State) { s.Finish(mode.OverWifi) },
			wantErr: ErrInvalidState,
		},
		{
			name:    "mode change in flight",
			prepare: func(s *mode.State) { s.TryBegin() },
			wantErr: ErrBusy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, state := newTestManager(nil)
			tt.prepare(state)

			if err := m.Enable(telemetry.SensorBME280); !errors.Is(err, tt.wantErr) {
				t.Errorf("Enable err = %v, want %v", err, tt.wantErr)
			}
			if err := m.Disable(telemetry.SensorBME280); !errors.Is(err, tt.wantErr) {
				t.Errorf("Disable err = %v, want %v", err, tt.wantErr)
			}
			if err := m.SetPeriod(telemetry.SensorBME280, time.Second); !errors.Is(err, tt.wantErr) {
				t.Errorf("SetPeriod err = %v, want %v", err, tt.wantErr)
			}
			if _, err := m.ReadOnce(telemetry.SensorBME280); !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadOnce err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManagerConfiguresWhenIdle(t *testing.T) {
	m, _ := newTestManager(nil)

	if err := m.Enable(telemetry.SensorBME280); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := m.SetPeriod(telemetry.SensorBME280, 500*time.Millisecond); err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	infos := m.List()
	if !infos[0].Enabled || infos[0].Period != 500*time.Millisecond {
		t.Errorf("BME280 = %+v, want enabled at 500ms", infos[0])
	}
	if err := m.Disable(telemetry.SensorBME280); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if m.List()[0].Enabled {
		t.Error("BME280 still enabled")
	}
}

func TestManagerUnknownSensor(t *testing.T) {
	m, _ := newTestManager(nil)
	if err := m.Enable(telemetry.SensorType("NOPE")); !errors.Is(err, telemetry.ErrUnknownSensor) {
		t.Fatalf("err = %v, want ErrUnknownSensor", err)
	}
}

func TestManagerBulkOperations(t *testing.T) {
	sink := newChanSink()
	m, state := newTestManager(sink)

	// The dispatcher holds the busy flag during bulk reconfiguration;
	// the bulk calls must work through it.
	state.TryBegin()
	if err := m.EnableAll(MinPeriod); err != nil {
		t.Fatalf("EnableAll: %v", err)
	}
	for _, info := range m.List() {
		if !info.Enabled {
			t.Errorf("%s not enabled by EnableAll", info.Type)
		}
		if info.Period != MinPeriod {
			t.Errorf("%s period = %v, want shared %v", info.Type, info.Period, MinPeriod)
		}
	}
	sink.next(t)

	m.DisableAll()
	for _, info := range m.List() {
		if info.Enabled {
			t.Errorf("%s still enabled after DisableAll", info.Type)
		}
	}
	state.Finish(mode.Disabled)
}

func TestManagerEnableAllRejectsBadPeriod(t *testing.T) {
	m, _ := newTestManager(nil)
	if err := m.EnableAll(time.Millisecond); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v, want ErrInvalidParam", err)
	}
}

func TestManagerProbe(t *testing.T) {
	m, _ := newTestManager(nil)
	readings := m.Probe()
	want := telemetry.AllSensors()
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d", len(readings), len(want))
	}
	for i, r := range readings {
		if r.Type != want[i] {
			t.Errorf("position %d: %s, want %s", i, r.Type, want[i])
		}
	}
}
