package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/zigbee-relay/internal/status"
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
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Zigbee Relay</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Zigbee Relay</h1>

<h2>State</h2>
<table>
<tr><th>Relay</th><td class="{{if .Relay}}on{{else}}off{{end}}">{{onOff .Relay}}</td></tr>
<tr><th>LED</th><td class="{{if .LED}}on{{else}}off{{end}}">{{onOff .LED}}</td></tr>
<tr><th>Button</th><td>{{.ButtonState}}</td></tr>
</table>

<h2>Measurements</h2>
<table>
<tr><th>Voltage</th><td>{{printf "%.2f" .VoltageVolts}} V</td></tr>
<tr><th>Battery</th><td>{{printf "%.1f" .BatteryVolts}} V ({{printf "%.1f" .BatteryPercent}}%)</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Network</th><td class="{{if .Joined}}connected{{else}}disconnected{{end}}">{{if .Joined}}joined{{else}}not joined{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if not .LastActivity.IsZero}}<tr><th>Last input</th><td>{{.LastActivity.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Hold</th><td>{{.Config.HoldMs}}ms</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleSec}}s &times;{{.Config.Oversample}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot carries raw units; the template wants display values.
	data := struct {
		status.Snapshot
		Uptime         time.Duration
		VoltageVolts   float64
		BatteryVolts   float64
		BatteryPercent float64
	}{
		Snapshot:       snap,
		Uptime:         snap.Uptime(),
		VoltageVolts:   float64(snap.VoltageCV) / 100,
		BatteryVolts:   float64(snap.BatteryDV) / 10,
		BatteryPercent: snap.BatteryPercent(),
	}
	indexTmpl.Execute(w, data)
}
