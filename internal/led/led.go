// Package led drives the board status LED. A pure state machine
// (Machine) decides what the LED should show at each instant, a
// Controller advances it on a ticker and pushes the result to a
// Driver, and drivers exist for real hardware and for tests.
package led

import "errors"

// Color is one of the mixable RGB colors of the status LED.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Yellow
	Cyan
	Purple
	White
)

// String returns the color name used in logs and the console.
func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	case Cyan:
		return "cyan"
	case Purple:
		return "purple"
	case White:
		return "white"
	default:
		return "unknown"
	}
}

// ParseColor maps a console color name to its Color. The second value
// reports whether the name is known.
func ParseColor(name string) (Color, bool) {
	for c := Red; c <= White; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return Red, false
}

// rgb returns the channel mix for the color.
func (c Color) rgb() (r, g, b bool) {
	switch c {
	case Red:
		return true, false, false
	case Green:
		return false, true, false
	case Blue:
		return false, false, true
	case Yellow:
		return true, true, false
	case Cyan:
		return false, true, true
	case Purple:
		return true, false, true
	case White:
		return true, true, true
	default:
		return false, false, false
	}
}

// LightMode is the operating mode of the LED.
type LightMode int

const (
	Normal LightMode = iota
	Blinking
	Fading
)

// String returns the mode name used in logs and the console.
func (m LightMode) String() string {
	switch m {
	case Blinking:
		return "blinking"
	case Fading:
		return "fading"
	default:
		return "normal"
	}
}

// BlinkState holds the parameters and progress of a blink pattern.
// Remaining counts full on/off cycles; negative means repeat forever.
type BlinkState struct {
	OnMs      int
	OffMs     int
	Remaining int
	InOnPhase bool
	PhaseMs   int // time left in the current phase
}

// FadeState holds the parameters and progress of a fade pattern.
// Remaining counts full in/out cycles; negative means repeat forever.
// A zero InMs or OutMs skips that ramp.
type FadeState struct {
	InMs      int
	OutMs     int
	Remaining int
	RampIn    bool
	ElapsedMs int // time spent in the current ramp
}

// Status is a point-in-time view of the LED machine. It is a value
// type: a snapshot stays valid after the machine moves on, and can be
// handed back to ResumeStatus to continue the pattern where it was.
type Status struct {
	IsOn  bool
	Mode  LightMode
	Color Color
	Blink BlinkState
	Fade  FadeState
}

// MinRampMs is the shortest accepted fade ramp. Ramps shorter than the
// tick resolution would render as flicker, not a fade.
const MinRampMs = 100

// DefaultTick is the controller resolution when none is configured.
const DefaultTick = 10 // milliseconds

var (
	ErrInvalidPattern = errors.New("invalid pattern parameters")
	ErrInvalidStatus  = errors.New("status does not describe a valid machine state")
)

// Default pins for the RGB channels (BCM numbering).
const (
	PinRed   = 12
	PinGreen = 13
	PinBlue  = 18
)

// Frame is the physical output the driver must show.
type Frame struct {
	On         bool
	Color      Color
	Brightness int // 0..100, scales all active channels
}

// Driver renders frames on the LED hardware.
type Driver interface {
	Apply(f Frame) error
	Close() error
}
