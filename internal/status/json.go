package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Device        string        `json:"device"`
	BootID        string        `json:"boot_id"`
	Mode          string        `json:"mode"`
	Busy          bool          `json:"busy"`
	Owner         string        `json:"gesture_owner"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Transport     TransportJSON `json:"transport"`
	Counters      CountersJSON  `json:"counters"`
	Config        ConfigJSON    `json:"config"`
	Events        []EventJSON   `json:"recent_events,omitempty"`
}

// TransportJSON reports the uplink states.
type TransportJSON struct {
	Wifi     string `json:"wifi"`
	Cellular string `json:"cellular"`
}

// CountersJSON is the JSON representation of the activity counters.
type CountersJSON struct {
	CyclesPublished int `json:"cycles_published"`
	CyclesDropped   int `json:"cycles_dropped"`
	CyclesDiscarded int `json:"cycles_discarded"`
	PublishErrors   int `json:"publish_errors"`
	Gestures        int `json:"gestures"`
}

// ConfigJSON is the JSON representation of agent config.
type ConfigJSON struct {
	Device      string `json:"device"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Console     string `json:"console,omitempty"`
	DebounceMs  int64  `json:"debounce_ms"`
	LongPressMs int64  `json:"long_press_ms"`
	PeriodMs    int64  `json:"period_ms"`
	MaxPayload  int    `json:"max_payload"`
}

// EventJSON is one history line.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Device:        snap.Config.Device,
		BootID:        snap.BootID,
		Mode:          snap.Mode.String(),
		Busy:          snap.Busy,
		Owner:         snap.Owner.String(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Transport: TransportJSON{
			Wifi:     snap.Transport.Wifi,
			Cellular: snap.Transport.Cellular,
		},
		Counters: CountersJSON{
			CyclesPublished: snap.Counters.CyclesPublished,
			CyclesDropped:   snap.Counters.CyclesDropped,
			CyclesDiscarded: snap.Counters.CyclesDiscarded,
			PublishErrors:   snap.Counters.PublishErrors,
			Gestures:        snap.Counters.Gestures,
		},
		Config: ConfigJSON{
			Device:      snap.Config.Device,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Console:     snap.Config.Console,
			DebounceMs:  snap.Config.DebounceMs,
			LongPressMs: snap.Config.LongPressMs,
			PeriodMs:    snap.Config.PeriodMs,
			MaxPayload:  snap.Config.MaxPayload,
		},
	}
}

func buildEvents(snap Snapshot, inner *StatusInner) {
	for _, e := range snap.Events {
		inner.Events = append(inner.Events, EventJSON{
			Timestamp: e.Time.UTC().Format(time.RFC3339),
			Text:      e.Text,
		})
	}
}

// FormatJSON returns the JSON status for the web endpoint, including
// the recent event history.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildEvents(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// The history is omitted to keep the retained payload small.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
