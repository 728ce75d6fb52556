package shell

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hollis/c210-agent/internal/aggregation"
	"github.com/hollis/c210-agent/internal/dispatch"
	"github.com/hollis/c210-agent/internal/led"
	"github.com/hollis/c210-agent/internal/mode"
	"github.com/hollis/c210-agent/internal/sensors"
	"github.com/hollis/c210-agent/internal/status"
	"github.com/hollis/c210-agent/internal/telemetry"
	"github.com/hollis/c210-agent/internal/transport"
)

type fakeSink struct {
	accept  bool
	actions []dispatch.Action
}

func (f *fakeSink) Submit(a dispatch.Action) bool {
	if !f.accept {
		return false
	}
	f.actions = append(f.actions, a)
	return true
}

type shellFixture struct {
	sh    *Shell
	drv   *led.FakeDriver
	mgr   *sensors.Manager
	fn    *aggregation.Function
	sink  *fakeSink
	state *mode.State
	tr    *status.Tracker
	wifi  *transport.FakeClient
}

func newTestShell(t *testing.T) *shellFixture {
	t.Helper()
	state := mode.NewState()
	tr := status.NewTracker(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), "boot-test", status.Config{})
	drv := led.NewFakeDriver()
	leds := led.NewController(drv, 0) // never started: commands apply synchronously
	wifi := transport.NewFakeClient(transport.StatusClosed)
	cell := transport.NewFakeClient(transport.StatusClosed)
	pub := transport.NewPublisher(wifi, cell, tr, nil)
	asm := telemetry.NewAssembler("C210", telemetry.AllSensors(), 0)

	var fn *aggregation.Function
	sink := sensors.SinkFunc(func(r telemetry.Reading) { fn.Consume(r) })
	mgr := sensors.NewManager(state, sensors.AllSimDrivers(), sink, nil, time.Second)
	fn = aggregation.NewFunction(aggregation.Deps{
		State:     state,
		Manager:   mgr,
		Assembler: asm,
		Publisher: pub,
		Wifi:      wifi,
		Cell:      cell,
		Tracker:   tr,
	}, time.Hour, 0)

	actions := &fakeSink{accept: true}
	sh := New(Config{
		Leds:       leds,
		Manager:    mgr,
		Function:   fn,
		Sink:       actions,
		State:      state,
		Tracker:    tr,
		Publisher:  pub,
		MaxEncoded: telemetry.DefaultMaxEncoded,
	})
	sh.now = func() time.Time { return time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC) }
	return &shellFixture{sh: sh, drv: drv, mgr: mgr, fn: fn, sink: actions, state: state, tr: tr, wifi: wifi}
}

// runScript feeds the lines to the console and returns everything it
// wrote back.
func runScript(t *testing.T, fx *shellFixture, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	rw := struct {
		io.Reader
		io.Writer
	}{in, &out}
	if err := fx.sh.Run(rw); err != nil {
		t.Fatalf("Run = %v", err)
	}
	return out.String()
}

func TestHelpAndUnknownCommand(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "help", "bogus", "exit")
	if !strings.Contains(out, "commands:") {
		t.Fatalf("help output missing from %q", out)
	}
	if !strings.Contains(out, `error: unknown command "bogus"`) {
		t.Fatalf("unknown command not reported in %q", out)
	}
	if !strings.Contains(out, "bye") {
		t.Fatalf("exit not acknowledged in %q", out)
	}
}

func TestLedCommands(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "led on blue", "exit")
	if !strings.Contains(out, "ok") {
		t.Fatalf("led on not acknowledged in %q", out)
	}
	if last, _ := fx.drv.Last(); !last.On || last.Color != led.Blue {
		t.Fatalf("led frame = %+v, want steady blue", last)
	}

	runScript(t, fx, "led off", "exit")
	if last, _ := fx.drv.Last(); last.On {
		t.Fatalf("led frame = %+v after off", last)
	}

	runScript(t, fx, "led blink green 100 100 3", "exit")
	if last, _ := fx.drv.Last(); !last.On || last.Color != led.Green {
		t.Fatalf("led frame = %+v, want blinking green first phase", last)
	}
}

func TestLedCommandErrors(t *testing.T) {
	fx := newTestShell(t)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"unknown color", "led on mauve", `error: unknown color "mauve"`},
		{"missing args", "led blink red", "error: usage: led blink"},
		{"bad number", "led blink red ten 100 3", `error: "ten" is not a number`},
		{"invalid pattern", "led blink red 0 100 3", "invalid pattern"},
		{"short fade ramp", "led fade red 50 50 1", "invalid pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runScript(t, fx, tt.line, "exit")
			if !strings.Contains(out, tt.want) {
				t.Fatalf("output %q missing %q", out, tt.want)
			}
		})
	}
}

func TestSensorCommands(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "sensor list", "exit")
	if !strings.Contains(out, "BME280") || !strings.Contains(out, "MAXM10") {
		t.Fatalf("sensor list incomplete: %q", out)
	}
	if !strings.Contains(out, "disabled") {
		t.Fatalf("sensors should list disabled at boot: %q", out)
	}

	runScript(t, fx, "sensor enable bme280", "sensor period bme280 250", "exit")
	for _, info := range fx.mgr.List() {
		if info.Type != telemetry.SensorBME280 {
			continue
		}
		if !info.Enabled {
			t.Fatal("bme280 not enabled through the console")
		}
		if info.Period != 250*time.Millisecond {
			t.Fatalf("bme280 period = %v, want 250ms", info.Period)
		}
	}
	runScript(t, fx, "sensor disable bme280", "exit")

	out = runScript(t, fx, "sensor period bme280 10", "exit")
	if !strings.Contains(out, "error:") || !strings.Contains(out, "invalid parameter") {
		t.Fatalf("below-minimum period not rejected: %q", out)
	}

	out = runScript(t, fx, "sensor enable nope", "exit")
	if !strings.Contains(out, "error:") || !strings.Contains(out, "not in expected set") {
		t.Fatalf("unknown sensor not rejected: %q", out)
	}
}

func TestSensorPublish(t *testing.T) {
	fx := newTestShell(t)
	fx.wifi.SetStatus(transport.StatusConnected)

	out := runScript(t, fx, "sensor publish bme280", "exit")
	if !strings.Contains(out, "published c210/telemetry/sensor/bme280") {
		t.Fatalf("publish not acknowledged in %q", out)
	}
	msgs := fx.wifi.Published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].Topic != transport.SensorTopic(telemetry.SensorBME280) {
		t.Fatalf("topic = %q", msgs[0].Topic)
	}
}

func TestFunctionsStartStop(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "functions wifi_start", "exit")
	if !strings.Contains(out, "ok: mode change queued") {
		t.Fatalf("wifi_start not queued: %q", out)
	}
	if len(fx.sink.actions) != 1 {
		t.Fatalf("submitted %d actions, want 1", len(fx.sink.actions))
	}
	a := fx.sink.actions[0]
	if a.Target != mode.OverWifi || a.Origin != "console" {
		t.Fatalf("action = %+v, want wifi from console", a)
	}
	if a.Color != dispatch.ModeColor(mode.OverWifi) {
		t.Errorf("start action color = %v, want the wifi mode color", a.Color)
	}

	// Stopping a mode that is not running is refused.
	out = runScript(t, fx, "functions wifi_stop", "exit")
	if !strings.Contains(out, "error:") || !strings.Contains(out, "not running") {
		t.Fatalf("wifi_stop on idle agent not refused: %q", out)
	}
	if len(fx.sink.actions) != 1 {
		t.Fatal("refused stop must not reach the dispatcher")
	}

	// Once wifi is recorded as running, wifi_stop submits a stop.
	fx.state.TryBegin()
	fx.state.Finish(mode.OverWifi)
	out = runScript(t, fx, "functions wifi_stop", "exit")
	if !strings.Contains(out, "ok: mode change queued") {
		t.Fatalf("wifi_stop not queued: %q", out)
	}
	stop := fx.sink.actions[len(fx.sink.actions)-1]
	if stop.Target != mode.Disabled {
		t.Fatalf("stop submitted target %v, want Disabled", stop.Target)
	}
	if stop.Color != led.White {
		t.Errorf("stop action color = %v, want white", stop.Color)
	}

	out = runScript(t, fx, "functions cell_start", "exit")
	if got := fx.sink.actions[len(fx.sink.actions)-1].Target; got != mode.OverCellular {
		t.Fatalf("cell_start submitted target %v (output %q)", got, out)
	}
}

func TestFunctionsRefusedWhileBusy(t *testing.T) {
	fx := newTestShell(t)
	fx.sink.accept = false

	out := runScript(t, fx, "functions wifi_start", "exit")
	if !strings.Contains(out, "error: mode change in progress") {
		t.Fatalf("busy dispatcher not surfaced: %q", out)
	}
}

func TestFunctionsSetPeriod(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "functions set_period 30000", "exit")
	if !strings.Contains(out, "ok") {
		t.Fatalf("set_period not acknowledged: %q", out)
	}
	if got := fx.fn.Period(); got != 30*time.Second {
		t.Fatalf("period = %v, want 30s", got)
	}

	out = runScript(t, fx, "functions set_period 50", "exit")
	if !strings.Contains(out, "error:") || !strings.Contains(out, "invalid parameter") {
		t.Fatalf("below-minimum period not rejected: %q", out)
	}
}

func TestStatusAndHistory(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "history", "exit")
	if !strings.Contains(out, "no events") {
		t.Fatalf("empty history not reported: %q", out)
	}

	fx.tr.AddEvent(time.Date(2026, 3, 14, 9, 1, 0, 0, time.UTC), "aggregation wifi started")
	fx.tr.AddEvent(time.Date(2026, 3, 14, 9, 2, 0, 0, time.UTC), "aggregation wifi stopped")

	out = runScript(t, fx, "status", "history", "exit")
	for _, want := range []string{
		"mode: disabled",
		"owner: none",
		"transport: wifi=closed cellular=closed",
		"period: 1h0m0s",
		"cycles: published=0 dropped=0 discarded=0",
		"boot: boot-test",
		"2026-03-14T09:01:00Z aggregation wifi started",
		"2026-03-14T09:02:00Z aggregation wifi stopped",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestExitEndsSession(t *testing.T) {
	fx := newTestShell(t)

	out := runScript(t, fx, "exit", "led on red")
	if strings.Contains(out, "ok") {
		t.Fatalf("commands after exit were processed: %q", out)
	}
	if frames := fx.drv.History(); len(frames) != 0 {
		t.Fatalf("led driven after exit: %d frames", len(frames))
	}
}
