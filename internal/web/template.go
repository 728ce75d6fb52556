package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/hollis/c210-agent/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"eventTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>C210 Agent</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.disabled { color: #888; }
.wifi { color: green; font-weight: bold; }
.cellular { color: #06c; font-weight: bold; }
.busy { color: orange; }
.connected { color: green; }
.open { color: orange; }
.closed { color: #888; }
.events { font-size: 0.9em; }
</style>
</head>
<body>
<h1>C210 Agent</h1>

<h2>Aggregation</h2>
<table>
<tr><th>Mode</th><td class="{{.Mode}}">{{.Mode}}{{if .Busy}} <span class="busy">(change in progress)</span>{{end}}</td></tr>
<tr><th>Gesture owner</th><td>{{.Owner}}</td></tr>
</table>

<h2>Transport</h2>
<table>
<tr><th>WiFi MQTT</th><td class="{{.Transport.Wifi}}">{{.Transport.Wifi}}</td></tr>
<tr><th>Cellular MQTT-SN</th><td class="{{.Transport.Cellular}}">{{.Transport.Cellular}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Activity</h2>
<table>
<tr><th>Cycles published</th><td>{{.Counters.CyclesPublished}}</td></tr>
<tr><th>Cycles dropped</th><td>{{.Counters.CyclesDropped}}</td></tr>
<tr><th>Cycles discarded</th><td>{{.Counters.CyclesDiscarded}}</td></tr>
<tr><th>Publish errors</th><td>{{.Counters.PublishErrors}}</td></tr>
<tr><th>Gestures</th><td>{{.Counters.Gestures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Aggregation period</th><td>{{.Config.PeriodMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.Console}}<tr><th>Console</th><td>{{.Config.Console}}</td></tr>{{end}}
</table>

{{if .Events}}<h2>Recent events</h2>
<table class="events">
{{range .Events}}<tr><th>{{eventTime .Time}}</th><td>{{.Text}}</td></tr>
{{end}}</table>{{end}}

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
