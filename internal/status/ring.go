package status

import "time"

// DefaultHistory is the event history capacity.
const DefaultHistory = 64

// Event is one line of agent history.
type Event struct {
	Time time.Time
	Text string
}

// eventRing is a fixed-capacity ring keeping the most recent events.
// Not safe for concurrent use — the Tracker synchronizes.
type eventRing struct {
	buf      []Event
	capacity int
	head     int // next write position
	count    int
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{
		buf:      make([]Event, capacity),
		capacity: capacity,
	}
}

func (r *eventRing) push(e Event) {
	// Overwrite oldest when full: head is already pointing at it.
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// list returns the retained events oldest first.
func (r *eventRing) list() []Event {
	if r.count == 0 {
		return nil
	}
	result := make([]Event, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}
	return result
}

func (r *eventRing) len() int {
	return r.count
}
