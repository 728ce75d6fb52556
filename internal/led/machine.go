package led

import "fmt"

// Machine is the pure LED state machine. It has no clock of its own:
// the owner feeds elapsed time into Advance. Machine is not safe for
// concurrent use; the Controller serializes access.
type Machine struct {
	status Status
}

// Status returns a copy of the machine state.
func (m *Machine) Status() Status {
	return m.status
}

// On switches to a steady color, cancelling any running pattern.
func (m *Machine) On(c Color) {
	m.status = Status{IsOn: true, Mode: Normal, Color: c}
}

// Off turns the LED off, cancelling any running pattern.
func (m *Machine) Off() {
	m.status = Status{}
}

// StartBlink begins a blink pattern. Both phase durations must be
// positive. count is the number of full on/off cycles; negative means
// blink until replaced, zero is rejected.
func (m *Machine) StartBlink(c Color, onMs, offMs, count int) error {
	if onMs <= 0 || offMs <= 0 {
		return fmt.Errorf("blink phases %dms/%dms: %w", onMs, offMs, ErrInvalidPattern)
	}
	if count == 0 {
		return fmt.Errorf("blink count 0: %w", ErrInvalidPattern)
	}
	m.status = Status{
		IsOn:  true,
		Mode:  Blinking,
		Color: c,
		Blink: BlinkState{
			OnMs:      onMs,
			OffMs:     offMs,
			Remaining: count,
			InOnPhase: true,
			PhaseMs:   onMs,
		},
	}
	return nil
}

// StartFade begins a fade pattern. A zero ramp is skipped; a nonzero
// ramp must be at least MinRampMs, and at least one ramp must be
// nonzero. count is the number of full in/out cycles; negative means
// fade until replaced, zero is rejected.
func (m *Machine) StartFade(c Color, inMs, outMs, count int) error {
	if err := checkFade(inMs, outMs, count); err != nil {
		return err
	}
	m.status = Status{
		IsOn:  true,
		Mode:  Fading,
		Color: c,
		Fade: FadeState{
			InMs:      inMs,
			OutMs:     outMs,
			Remaining: count,
			RampIn:    inMs > 0,
		},
	}
	return nil
}

func checkFade(inMs, outMs, count int) error {
	if inMs < 0 || outMs < 0 {
		return fmt.Errorf("fade ramps %dms/%dms: %w", inMs, outMs, ErrInvalidPattern)
	}
	if inMs == 0 && outMs == 0 {
		return fmt.Errorf("fade with both ramps zero: %w", ErrInvalidPattern)
	}
	if (inMs > 0 && inMs < MinRampMs) || (outMs > 0 && outMs < MinRampMs) {
		return fmt.Errorf("fade ramp below %dms: %w", MinRampMs, ErrInvalidPattern)
	}
	if count == 0 {
		return fmt.Errorf("fade count 0: %w", ErrInvalidPattern)
	}
	return nil
}

// Resume replaces the machine state with a snapshot taken earlier by
// Status. The snapshot is validated so a corrupted value cannot wedge
// the machine.
func (m *Machine) Resume(s Status) error {
	switch s.Mode {
	case Normal:
		// Pattern fields are ignored in Normal mode.
		m.status = Status{IsOn: s.IsOn, Mode: Normal, Color: s.Color}
		return nil
	case Blinking:
		b := s.Blink
		if b.OnMs <= 0 || b.OffMs <= 0 || b.Remaining == 0 {
			return fmt.Errorf("blink snapshot %+v: %w", b, ErrInvalidStatus)
		}
		max := b.OnMs
		if !b.InOnPhase {
			max = b.OffMs
		}
		if b.PhaseMs <= 0 || b.PhaseMs > max {
			return fmt.Errorf("blink snapshot phase %dms: %w", b.PhaseMs, ErrInvalidStatus)
		}
		m.status = s
		m.status.IsOn = true
		m.status.Fade = FadeState{}
		return nil
	case Fading:
		f := s.Fade
		if err := checkFade(f.InMs, f.OutMs, f.Remaining); err != nil {
			return fmt.Errorf("fade snapshot %+v: %w", f, ErrInvalidStatus)
		}
		ramp := f.OutMs
		if f.RampIn {
			ramp = f.InMs
		}
		if f.ElapsedMs < 0 || f.ElapsedMs > ramp {
			return fmt.Errorf("fade snapshot elapsed %dms: %w", f.ElapsedMs, ErrInvalidStatus)
		}
		m.status = s
		m.status.IsOn = true
		m.status.Blink = BlinkState{}
		return nil
	default:
		return fmt.Errorf("mode %d: %w", s.Mode, ErrInvalidStatus)
	}
}

// Advance moves the machine forward by elapsed milliseconds. Phase
// boundaries inside the window are honored in order, so a coarse tick
// cannot skip cycles.
func (m *Machine) Advance(elapsedMs int) {
	if elapsedMs <= 0 {
		return
	}
	switch m.status.Mode {
	case Blinking:
		m.advanceBlink(elapsedMs)
	case Fading:
		m.advanceFade(elapsedMs)
	}
}

func (m *Machine) advanceBlink(rem int) {
	for rem > 0 && m.status.Mode == Blinking {
		b := &m.status.Blink
		if b.PhaseMs > rem {
			b.PhaseMs -= rem
			return
		}
		rem -= b.PhaseMs
		if b.InOnPhase {
			b.InOnPhase = false
			b.PhaseMs = b.OffMs
			continue
		}
		// A full on/off cycle just finished.
		if b.Remaining > 0 {
			b.Remaining--
			if b.Remaining == 0 {
				m.Off()
				return
			}
		}
		b.InOnPhase = true
		b.PhaseMs = b.OnMs
	}
}

func (m *Machine) advanceFade(rem int) {
	for rem > 0 && m.status.Mode == Fading {
		f := &m.status.Fade
		ramp := f.OutMs
		if f.RampIn {
			ramp = f.InMs
		}
		left := ramp - f.ElapsedMs
		if left > rem {
			f.ElapsedMs += rem
			return
		}
		rem -= left
		if f.RampIn {
			f.RampIn = false
			f.ElapsedMs = 0
			if f.OutMs > 0 {
				continue
			}
			// Zero out-ramp: the cycle ends at the peak.
		}
		// A full in/out cycle just finished.
		if f.Remaining > 0 {
			f.Remaining--
			if f.Remaining == 0 {
				m.Off()
				return
			}
		}
		f.RampIn = f.InMs > 0
		f.ElapsedMs = 0
	}
}

// Output returns the frame the driver should show right now.
func (m *Machine) Output() Frame {
	s := m.status
	switch s.Mode {
	case Blinking:
		if !s.Blink.InOnPhase {
			return Frame{}
		}
		return Frame{On: true, Color: s.Color, Brightness: 100}
	case Fading:
		return Frame{On: true, Color: s.Color, Brightness: fadeBrightness(s.Fade)}
	default:
		if !s.IsOn {
			return Frame{}
		}
		return Frame{On: true, Color: s.Color, Brightness: 100}
	}
}

func fadeBrightness(f FadeState) int {
	if f.RampIn {
		if f.InMs == 0 {
			return 100
		}
		return f.ElapsedMs * 100 / f.InMs
	}
	if f.OutMs == 0 {
		return 0
	}
	return 100 - f.ElapsedMs*100/f.OutMs
}
