// Package transport carries telemetry documents to the broker over the
// WiFi MQTT uplink or the cellular MQTT-SN uplink. Session bring-up is
// a black box behind the Client interface; the Publisher only asks each
// uplink for its state and hands the connected one the message.
package transport

import "errors"

// Status is the session state an uplink reports.
type Status int

const (
	StatusClosed Status = iota
	StatusOpen
	StatusConnected
)

// String returns the status name used in logs and status documents.
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusConnected:
		return "connected"
	default:
		return "closed"
	}
}

// Message is one publish request. MQTT uses the Topic string; MQTT-SN
// uses the predefined Alias instead.
type Message struct {
	Topic   string
	Alias   uint16
	Payload []byte
	QoS     byte
	Retain  bool
}

// Client is one uplink session.
type Client interface {
	// Connect opens the session. It blocks until the session is up or
	// an internal timeout expires.
	Connect() error

	// Disconnect closes the session.
	Disconnect()

	// Status reports the session state.
	Status() Status

	// Publish sends one message over the session.
	Publish(m Message) error
}

var (
	// ErrNotConnected is returned by a publish on a session that is
	// not connected.
	ErrNotConnected = errors.New("session not connected")

	// ErrNoTransport is returned when no uplink reports Connected and
	// the document is dropped.
	ErrNoTransport = errors.New("no transport connected")
)
