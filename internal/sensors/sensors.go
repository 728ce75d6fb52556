// Package sensors owns the sampling side of the agent: one driver per
// onboard sensor, one periodic sampler per driver, and a manager that
// enforces the configuration guards around aggregation mode.
package sensors

import (
	"errors"
	"time"

	"github.com/hollis/c210-agent/internal/telemetry"
)

// Driver reads one onboard sensor. Fetch failures travel inside the
// reading status, not as a separate error; the wire protocol is the
// error channel for that class.
type Driver interface {
	Type() telemetry.SensorType
	Read() telemetry.Reading
}

// ReadingSink consumes readings as the samplers produce them. The
// aggregation function implements it and routes each reading either
// into the shared accumulator or out as a standalone document.
type ReadingSink interface {
	Consume(r telemetry.Reading)
}

// SinkFunc adapts a function to the ReadingSink interface.
type SinkFunc func(telemetry.Reading)

// Consume calls f.
func (f SinkFunc) Consume(r telemetry.Reading) { f(r) }

// Sampling period bounds. A period below MinPeriod would spin the bus;
// the defaults mirror the firmware configuration.
const (
	MinPeriod                = 100 * time.Millisecond
	DefaultPeriod            = 10 * time.Second
	DefaultAggregationPeriod = 60 * time.Second
)

// Configuration errors surfaced to the shell and the web handlers.
var (
	ErrInvalidParam = errors.New("invalid parameter")
	ErrInvalidState = errors.New("invalid state")
	ErrBusy         = errors.New("mode change in progress")
)
