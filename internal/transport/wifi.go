package transport

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second

	// Milliseconds paho waits for in-flight work on disconnect.
	disconnectQuiesce = 1000
)

// WifiClient is the WiFi uplink: a plain MQTT session to the broker.
type WifiClient struct {
	mu       sync.Mutex
	broker   string
	clientID string
	client   paho.Client
}

// NewWifiClient prepares a WiFi uplink for the given broker URL. The
// session is not opened until Connect.
func NewWifiClient(broker string) *WifiClient {
	return &WifiClient{
		broker:   broker,
		clientID: "c210-agent-" + uuid.NewString()[:8],
	}
}

// Connect opens the MQTT session. Once up, paho keeps the session alive
// and reconnects on its own; a dropped link shows as StatusOpen until
// the reconnect lands.
func (c *WifiClient) Connect() error {
	c.mu.Lock()
	if c.client == nil {
		opts := paho.NewClientOptions().
			AddBroker(c.broker).
			SetClientID(c.clientID).
			SetAutoReconnect(true).
			SetConnectRetry(true).
			SetConnectRetryInterval(retryInterval)
		c.client = paho.NewClient(opts)
	}
	client := c.client
	c.mu.Unlock()

	if client.IsConnected() {
		return nil
	}
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.Disconnect()
		return fmt.Errorf("connect %s: connection timeout", c.broker)
	}
	if err := token.Error(); err != nil {
		c.Disconnect()
		return fmt.Errorf("connect %s: %w", c.broker, err)
	}
	return nil
}

// Disconnect closes the session.
func (c *WifiClient) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client != nil {
		client.Disconnect(disconnectQuiesce)
	}
}

// Status reports the session state.
func (c *WifiClient) Status() Status {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return StatusClosed
	}
	if client.IsConnected() {
		return StatusConnected
	}
	return StatusOpen
}

// Publish sends one message on the MQTT topic.
func (c *WifiClient) Publish(m Message) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return fmt.Errorf("publish %s: %w", m.Topic, ErrNotConnected)
	}
	token := client.Publish(m.Topic, m.QoS, m.Retain, m.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.Topic, err)
	}
	return nil
}
