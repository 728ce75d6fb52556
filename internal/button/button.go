// Package button turns raw GPIO edges from the two board buttons into
// debounced press/release transitions and long-press gestures. The
// real Source uses the Linux GPIO character device; the fake allows
// testing without hardware.
package button

import "time"

// ID identifies one of the two board buttons.
type ID int

const (
	Button1 ID = iota + 1 // commands aggregation over WiFi
	Button2               // commands aggregation over Cellular
)

// String returns the button name used in logs.
func (id ID) String() string {
	switch id {
	case Button1:
		return "button1"
	case Button2:
		return "button2"
	default:
		return "unknown"
	}
}

// Edge is a raw logical transition reported by a Source. Pressed is
// the state after the edge; Time is when the edge was observed.
type Edge struct {
	Button  ID
	Pressed bool
	Time    time.Time
}

// Source delivers raw button edges. Edges are not debounced.
type Source interface {
	// Events returns the edge stream. The channel is never closed;
	// consumers stop on their own signal.
	Events() <-chan Edge

	// Close releases the underlying resources.
	Close() error
}

// Default pins (BCM numbering). The buttons pull the line to ground,
// so a falling edge is a press.
const (
	DefaultPinButton1 = 20
	DefaultPinButton2 = 21
)

// Gesture timing defaults.
const (
	DefaultDebounce  = 50 * time.Millisecond
	DefaultLongPress = 3000 * time.Millisecond
	DefaultTickEvery = 100 * time.Millisecond
)
