package transport

import (
	"errors"
	"fmt"
	"sync"
)

// Session is the modem-side MQTT-SN session contract. The modem stack
// owns registration, keepalive, and the radio link; the agent only
// frames publishes in the predefined-alias form and asks whether the
// session is live.
type Session interface {
	Publish(alias uint16, payload []byte, qos byte, retain bool) error
	Connected() bool
}

// CellularClient is the MQTT-SN uplink. Without an attached modem
// session it stays Closed and every operation fails.
type CellularClient struct {
	mu      sync.Mutex
	session Session
	open    bool
}

// NewCellularClient wraps a modem session. A nil session is allowed and
// models a board without the cellular option fitted.
func NewCellularClient(s Session) *CellularClient {
	return &CellularClient{session: s}
}

// Connect takes the modem session into use.
func (c *CellularClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return errors.New("cellular: no modem session")
	}
	c.open = true
	return nil
}

// Disconnect releases the session. The modem keeps its own link up.
func (c *CellularClient) Disconnect() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// Status reports the session state: Closed until Connect, Open while
// the modem link is down, Connected when the modem reports the session
// live.
func (c *CellularClient) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || !c.open {
		return StatusClosed
	}
	if c.session.Connected() {
		return StatusConnected
	}
	return StatusOpen
}

// Publish sends one message using the predefined-alias form.
func (c *CellularClient) Publish(m Message) error {
	c.mu.Lock()
	session := c.session
	open := c.open
	c.mu.Unlock()
	if session == nil || !open || !session.Connected() {
		return fmt.Errorf("publish alias %d: %w", m.Alias, ErrNotConnected)
	}
	if m.Alias == 0 {
		return fmt.Errorf("publish %s: no predefined alias", m.Topic)
	}
	if err := session.Publish(m.Alias, m.Payload, m.QoS, m.Retain); err != nil {
		return fmt.Errorf("publish alias %d: %w", m.Alias, err)
	}
	return nil
}
