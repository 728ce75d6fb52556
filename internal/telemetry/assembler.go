package telemetry

import (
	"bytes"
	"fmt"
	"sync"
)

// Assembler accumulates one JSON fragment per sensor into a single
// aggregated document and reports completion the moment the last expected
// sensor type has contributed. Sampler goroutines call Submit concurrently;
// the whole submit-and-complete sequence runs under one mutex so fragments
// never interleave.
type Assembler struct {
	mu         sync.Mutex
	device     string
	expected   map[SensorType]struct{}
	order      []SensorType
	received   map[SensorType]struct{}
	buf        bytes.Buffer
	maxEncoded int
}

// NewAssembler creates an Assembler for the given device name and expected
// sensor set. maxEncoded caps the Base64 output; zero selects
// DefaultMaxEncoded.
func NewAssembler(device string, expected []SensorType, maxEncoded int) *Assembler {
	if maxEncoded <= 0 {
		maxEncoded = DefaultMaxEncoded
	}
	exp := make(map[SensorType]struct{}, len(expected))
	order := make([]SensorType, 0, len(expected))
	for _, t := range expected {
		if _, dup := exp[t]; dup {
			continue
		}
		exp[t] = struct{}{}
		order = append(order, t)
	}
	return &Assembler{
		device:     device,
		expected:   exp,
		order:      order,
		received:   make(map[SensorType]struct{}),
		maxEncoded: maxEncoded,
	}
}

// Submit appends one reading to the in-progress cycle.
//
// It returns (false, nil, nil) while contributions are outstanding and
// (true, payload, nil) with the Base64-encoded document the moment the last
// expected sensor reports. Unknown or duplicate sensors and malformed
// readings are rejected without touching the accumulator; an overflow
// discards the whole cycle so no partial message is ever published.
func (a *Assembler) Submit(r Reading) (bool, []byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.expected[r.Type]; !ok {
		return false, nil, fmt.Errorf("%w: %q", ErrUnknownSensor, r.Type)
	}
	if _, dup := a.received[r.Type]; dup {
		return false, nil, fmt.Errorf("%w: %q", ErrDuplicateReading, r.Type)
	}

	frag, err := renderFragment(r)
	if err != nil {
		// Unrecognized status or bad channel data: the fragment was never
		// written, but the firmware treats this as fatal to the cycle.
		a.resetLocked()
		return false, nil, err
	}

	head := ","
	if len(a.received) == 0 {
		head = fmt.Sprintf(`{"Dev":%q,"Sensors":[`, a.device)
	}
	if !encodedFits(a.buf.Len()+len(head)+len(frag)+len("]}"), a.maxEncoded) {
		a.resetLocked()
		return false, nil, fmt.Errorf("%w: fragment for %q does not fit", ErrBufferOverflow, r.Type)
	}
	a.buf.WriteString(head)
	a.buf.Write(frag)
	a.received[r.Type] = struct{}{}

	if len(a.received) < len(a.expected) {
		return false, nil, nil
	}

	a.buf.WriteString("]}")
	payload, err := encode(a.buf.Bytes(), a.maxEncoded)
	a.resetLocked()
	if err != nil {
		return false, nil, err
	}
	return true, payload, nil
}

// Reset discards any in-progress cycle. Resetting an empty assembler is a
// no-op; after Reset the assembler equals its just-initialized state.
func (a *Assembler) Reset() {
	a.mu.Lock()
	a.resetLocked()
	a.mu.Unlock()
}

func (a *Assembler) resetLocked() {
	a.buf.Reset()
	a.received = make(map[SensorType]struct{})
}

// Pending returns the sensor types that have not yet contributed to the
// current cycle, in expected-set order. An empty slice means a cycle has
// not started or was just completed.
func (a *Assembler) Pending() []SensorType {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.received) == 0 {
		return nil
	}
	var out []SensorType
	for _, t := range a.order {
		if _, ok := a.received[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Received returns how many distinct sensors have contributed to the
// current cycle.
func (a *Assembler) Received() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.received)
}
