//go:build !linux

package button

import "errors"

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns an error on non-Linux platforms.
func NewRealSource(pin1, pin2 int) (*RealSource, error) {
	return nil, errors.New("button: not supported on this platform (requires Linux)")
}

// Events is not implemented on non-Linux platforms.
func (s *RealSource) Events() <-chan Edge {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
