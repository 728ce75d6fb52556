package sensors

import (
	"errors"
	"testing"

	"github.com/hollis/c210-agent/internal/telemetry"
)

func TestSimDriverDeterministic(t *testing.T) {
	a, err := NewSimDriver(telemetry.SensorBME280)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	b, _ := NewSimDriver(telemetry.SensorBME280)

	for i := 0; i < 5; i++ {
		ra, rb := a.Read(), b.Read()
		if ra.Status != rb.Status {
			t.Fatalf("step %d: status %s vs %s", i, ra.Status, rb.Status)
		}
		for j := range ra.Measurements {
			if ra.Measurements[j] != rb.Measurements[j] {
				t.Fatalf("step %d channel %d: %+v vs %+v", i, j, ra.Measurements[j], rb.Measurements[j])
			}
		}
	}
}

func TestSimDriverWarmup(t *testing.T) {
	d, err := NewSimDriver(telemetry.SensorMAXM10)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	for i := 0; i < 3; i++ {
		r := d.Read()
		if r.Status != telemetry.ReadNotInitialized {
			t.Fatalf("read %d: status %s, want init", i+1, r.Status)
		}
		if len(r.Measurements) != 0 {
			t.Fatalf("read %d: %d measurements during warmup", i+1, len(r.Measurements))
		}
	}
	r := d.Read()
	if r.Status != telemetry.ReadOK {
		t.Fatalf("read after warmup: status %s, want ok", r.Status)
	}
	if len(r.Measurements) != 3 {
		t.Fatalf("got %d measurements, want 3", len(r.Measurements))
	}
}

func TestSimDriverForcedFailure(t *testing.T) {
	d, err := NewSimDriver(telemetry.SensorLTR303)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}

	d.FailWith(telemetry.ReadFetchTimeout)
	r := d.Read()
	if r.Status != telemetry.ReadFetchTimeout {
		t.Fatalf("status = %s, want timeout", r.Status)
	}
	if len(r.Measurements) != 0 {
		t.Fatalf("failed read carries %d measurements", len(r.Measurements))
	}

	d.FailWith(telemetry.ReadOK)
	if r := d.Read(); r.Status != telemetry.ReadOK {
		t.Fatalf("status after clearing = %s, want ok", r.Status)
	}
}

func TestSimChannelTemplates(t *testing.T) {
	type channel struct {
		name string
		kind telemetry.Kind
	}
	tests := []struct {
		typ      telemetry.SensorType
		channels []channel
	}{
		{telemetry.SensorBME280, []channel{{"Tm", telemetry.KindDouble}, {"Hm", telemetry.KindDouble}, {"Pr", telemetry.KindDouble}}},
		{telemetry.SensorLIS2DH12, []channel{{"Ax", telemetry.KindDouble}, {"Ay", telemetry.KindDouble}, {"Az", telemetry.KindDouble}}},
		{telemetry.SensorADXL345, []channel{{"Ax", telemetry.KindDouble}, {"Ay", telemetry.KindDouble}, {"Az", telemetry.KindDouble}}},
		{telemetry.SensorLIS3MDL, []channel{{"Mx", telemetry.KindDouble}, {"My", telemetry.KindDouble}, {"Mz", telemetry.KindDouble}}},
		{telemetry.SensorLTR303, []channel{{"Lx", telemetry.KindInt}}},
		{telemetry.SensorMAX17048, []channel{{"Vb", telemetry.KindDouble}, {"Ch", telemetry.KindInt}}},
		{telemetry.SensorMAXM10, []channel{{"Lt", telemetry.KindPosition}, {"Ln", telemetry.KindPosition}, {"Al", telemetry.KindDouble}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			d, err := NewSimDriver(tt.typ)
			if err != nil {
				t.Fatalf("new driver: %v", err)
			}
			var r telemetry.Reading
			for i := 0; i < 4; i++ { // past any warmup
				r = d.Read()
			}
			if r.Status != telemetry.ReadOK {
				t.Fatalf("status = %s, want ok", r.Status)
			}
			if len(r.Measurements) != len(tt.channels) {
				t.Fatalf("got %d channels, want %d", len(r.Measurements), len(tt.channels))
			}
			for i, c := range tt.channels {
				if r.Measurements[i].Name != c.name || r.Measurements[i].Kind != c.kind {
					t.Errorf("channel %d = %s/%s, want %s/%s",
						i, r.Measurements[i].Name, r.Measurements[i].Kind, c.name, c.kind)
				}
			}
		})
	}
}

func TestSimReadingsEncode(t *testing.T) {
	for _, d := range AllSimDrivers() {
		var r telemetry.Reading
		for i := 0; i < 4; i++ {
			r = d.Read()
		}
		if _, err := telemetry.EncodeReading(r, telemetry.DefaultMaxEncoded); err != nil {
			t.Errorf("%s: encode: %v", d.Type(), err)
		}
	}
}

func TestNewSimDriverUnknown(t *testing.T) {
	_, err := NewSimDriver(telemetry.SensorType("NOPE"))
	if !errors.Is(err, telemetry.ErrUnknownSensor) {
		t.Fatalf("err = %v, want ErrUnknownSensor", err)
	}
}
