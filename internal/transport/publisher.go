package transport

import (
	"log"

	"github.com/hollis/c210-agent/internal/observability"
	"github.com/hollis/c210-agent/internal/status"
	"github.com/hollis/c210-agent/internal/telemetry"
)

// Publisher picks the uplink for each document: WiFi MQTT when its
// session reports Connected, the cellular MQTT-SN alias form as the
// fallback, a logged drop when neither is up. There is no queueing or
// retry; the next sampling cycle publishes fresh data anyway.
type Publisher struct {
	wifi    Client
	cell    Client
	tracker *status.Tracker
	metrics *observability.Metrics
}

// NewPublisher wires the two uplinks. tracker and metrics may be nil.
func NewPublisher(wifi, cell Client, tracker *status.Tracker, metrics *observability.Metrics) *Publisher {
	return &Publisher{wifi: wifi, cell: cell, tracker: tracker, metrics: metrics}
}

// Publish sends one message over the connected uplink. It returns
// ErrNoTransport when neither uplink is connected.
func (p *Publisher) Publish(m Message) error {
	switch {
	case p.wifi != nil && p.wifi.Status() == StatusConnected:
		return p.send(p.wifi, "wifi", m)
	case p.cell != nil && p.cell.Status() == StatusConnected:
		return p.send(p.cell, "cellular", m)
	default:
		log.Printf("publish %s dropped: no transport connected", m.Topic)
		p.metrics.PublishAttempted("none", "drop")
		return ErrNoTransport
	}
}

func (p *Publisher) send(c Client, name string, m Message) error {
	if err := c.Publish(m); err != nil {
		p.metrics.PublishAttempted(name, "error")
		if p.tracker != nil {
			p.tracker.PublishError()
		}
		return err
	}
	p.metrics.PublishAttempted(name, "ok")
	return nil
}

// PublishAggregated sends a completed aggregated document, QoS 0 and
// not retained.
func (p *Publisher) PublishAggregated(payload []byte) error {
	return p.Publish(Message{Topic: TopicAggregated, Alias: AliasAggregated, Payload: payload})
}

// PublishSensor sends one sensor's standalone document.
func (p *Publisher) PublishSensor(t telemetry.SensorType, payload []byte) error {
	return p.Publish(Message{Topic: SensorTopic(t), Alias: SensorAlias(t), Payload: payload})
}

// PublishSystem sends a lifecycle document, QoS 1 retained so the
// broker keeps the latest agent state for late subscribers.
func (p *Publisher) PublishSystem(payload []byte) error {
	return p.Publish(Message{Topic: TopicSystem, Alias: AliasSystem, Payload: payload, QoS: 1, Retain: true})
}

// Statuses reports both uplink states for the status page.
func (p *Publisher) Statuses() (wifi, cell Status) {
	wifi, cell = StatusClosed, StatusClosed
	if p.wifi != nil {
		wifi = p.wifi.Status()
	}
	if p.cell != nil {
		cell = p.cell.Status()
	}
	return wifi, cell
}
