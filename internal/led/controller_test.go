package led

import (
	"testing"
	"time"
)

// driveTicks sends the given instants on the tick channel. A trailing
// duplicate instant is sent as a barrier: when its send completes, the
// loop has finished processing every earlier tick.
func driveTicks(t *testing.T, tick chan time.Time, instants ...time.Time) {
	t.Helper()
	for _, ts := range instants {
		tick <- ts
	}
	tick <- instants[len(instants)-1]
}

func TestControllerAppliesCommandsImmediately(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)

	c.On(Blue)
	f, ok := fake.Last()
	if !ok || !f.On || f.Color != Blue || f.Brightness != 100 {
		t.Errorf("On(blue) frame: %+v ok=%v", f, ok)
	}

	c.Off()
	f, _ = fake.Last()
	if f.On {
		t.Errorf("Off frame: %+v", f)
	}
}

func TestControllerSkipsUnchangedFrames(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)

	c.On(Blue)
	c.On(Blue)
	if n := len(fake.History()); n != 1 {
		t.Errorf("identical frame applied %d times, want 1", n)
	}
}

func TestControllerRunAdvancesPattern(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)
	if err := c.Blink(Red, 100, 50, 1); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	tick := make(chan time.Time)
	go c.run(base, tick)

	driveTicks(t, tick,
		base.Add(100*time.Millisecond), // on phase ends
		base.Add(150*time.Millisecond), // off phase ends, pattern exhausted
	)

	if got := c.GetStatus(); got.IsOn || got.Mode != Normal {
		t.Errorf("pattern should be exhausted: %+v", got)
	}

	// The exhausted pattern renders the same off frame as the off
	// phase, so exactly two frames reach the driver.
	frames := fake.History()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %+v", len(frames), frames)
	}
	if !frames[0].On || frames[0].Color != Red {
		t.Errorf("frame 0 should be red on: %+v", frames[0])
	}
	if frames[1].On {
		t.Errorf("frame 1 should be off: %+v", frames[1])
	}

	c.Stop()
}

func TestControllerRunIgnoresStaleTicks(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)
	if err := c.Blink(Red, 100, 100, -1); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	tick := make(chan time.Time)
	go c.run(base, tick)

	driveTicks(t, tick, base, base.Add(-time.Second), base.Add(50*time.Millisecond))

	s := c.GetStatus()
	if s.Blink.PhaseMs != 50 {
		t.Errorf("only 50ms should have elapsed, phase=%dms", s.Blink.PhaseMs)
	}

	c.Stop()
}

func TestControllerStopTurnsOff(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, time.Millisecond)
	c.Start()
	c.On(White)

	c.Stop()
	f, ok := fake.Last()
	if !ok || f.On {
		t.Errorf("Stop must leave the LED off, last frame %+v", f)
	}

	// A second Stop is a no-op.
	c.Stop()
}

func TestControllerSnapshotRoundTrip(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)
	if err := c.Fade(Green, 200, 200, -1); err != nil {
		t.Fatal(err)
	}

	snap := c.GetStatus()
	c.On(Red) // temporary feedback replaces the pattern

	if err := c.ResumeStatus(snap); err != nil {
		t.Fatalf("resume: %v", err)
	}
	s := c.GetStatus()
	if s.Mode != Fading || s.Color != Green || s.Fade.Remaining != -1 {
		t.Errorf("pattern not restored: %+v", s)
	}
}

func TestControllerRejectsBadPatterns(t *testing.T) {
	fake := NewFakeDriver()
	c := NewController(fake, 0)

	if err := c.Blink(Red, 0, 50, 1); err == nil {
		t.Error("invalid blink accepted")
	}
	if err := c.Fade(Red, 10, 10, 1); err == nil {
		t.Error("invalid fade accepted")
	}
	if err := c.ResumeStatus(Status{Mode: LightMode(9)}); err == nil {
		t.Error("invalid snapshot accepted")
	}
}
