package transport

import (
	"strings"

	"github.com/hollis/c210-agent/internal/telemetry"
)

// Topic names and MQTT-SN predefined aliases. These are wire contract
// with the dashboard and the MQTT-SN gateway configuration; the alias
// table on the gateway must match.
const (
	TopicAggregated = "c210/telemetry/aggregated"
	TopicSystem     = "c210/telemetry/system"

	AliasAggregated uint16 = 1
	AliasSystem     uint16 = 2

	// Per-sensor aliases follow in AllSensors order.
	aliasSensorBase uint16 = 3
)

// SensorTopic returns the standalone publish topic for one sensor.
func SensorTopic(t telemetry.SensorType) string {
	return "c210/telemetry/sensor/" + strings.ToLower(string(t))
}

// SensorAlias returns the predefined MQTT-SN alias for one sensor's
// standalone topic, or 0 for a sensor outside the C210 set.
func SensorAlias(t telemetry.SensorType) uint16 {
	for i, s := range telemetry.AllSensors() {
		if s == t {
			return aliasSensorBase + uint16(i)
		}
	}
	return 0
}
