//go:build linux

package button

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealSource reads button edges from the Linux GPIO character device.
type RealSource struct {
	chip   *gpiocdev.Chip
	lines  []*gpiocdev.Line
	events chan Edge
}

// NewRealSource requests both button lines with edge detection. The
// lines are pulled up; pressing a button grounds the line, so the
// falling edge maps to pressed.
func NewRealSource(pin1, pin2 int) (*RealSource, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSource{
		chip:   chip,
		events: make(chan Edge, 16),
	}

	for _, req := range []struct {
		id  ID
		pin int
	}{
		{Button1, pin1},
		{Button2, pin2},
	} {
		line, err := chip.RequestLine(req.pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(s.handler(req.id)),
		)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.id, req.pin, err)
		}
		s.lines = append(s.lines, line)
	}

	return s, nil
}

// handler converts a line event into an Edge. The send never blocks:
// if the consumer has fallen behind by a full channel, the edge is
// dropped rather than stalling the gpiocdev event goroutine.
func (s *RealSource) handler(id ID) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		e := Edge{
			Button:  id,
			Pressed: evt.Type == gpiocdev.LineEventFallingEdge,
			Time:    time.Now(),
		}
		select {
		case s.events <- e:
		default:
			log.Printf("button edge dropped: %s pressed=%v", id, e.Pressed)
		}
	}
}

// Events returns the edge stream.
func (s *RealSource) Events() <-chan Edge {
	return s.events
}

// Close releases the button lines and the chip.
func (s *RealSource) Close() error {
	var errs []error
	for _, l := range s.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	s.lines = nil
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
