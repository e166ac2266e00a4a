package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/home-automaton/internal/status"
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
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		default:
			return "unknown"
		}
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"celsius": func(c float64) string {
		return fmt.Sprintf("%.1f °C", c)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Home Automaton</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Home Automaton</h1>

<h2>Alarm</h2>
<table>
<tr><th>State</th><td id="alarm-state" class="{{stateClass (orUnknown (printf "%s" .Alarm.State))}}">{{orUnknown (printf "%s" .Alarm.State)}}</td></tr>
<tr><th>Last trigger</th><td>{{.Alarm.LastTrigger}} ms</td></tr>
</table>

<h2>Thermostat</h2>
<table>
<tr><th>Heating</th><td id="heat-state" class="{{stateClass (orUnknown (printf "%s" .Thermostat.State))}}">{{orUnknown (printf "%s" .Thermostat.State)}}</td></tr>
<tr><th>Temperature</th><td id="celsius">{{celsius .Thermostat.Celsius}}</td></tr>
<tr><th>Threshold</th><td>{{celsius .Config.ThresholdCelsius}}</td></tr>
<tr><th>Last event</th><td>{{orUnknown .Thermostat.LastEvent}}</td></tr>
</table>

{{if .Thermostat.History}}<h3>History</h3>
<table>
<tr><th>Slot</th><td>Event</td></tr>
{{range $i, $h := .Thermostat.History}}<tr><th>{{$i}}</th><td>{{$h.Kind}}{{if ne $h.Kind "UNKNOWN"}} at {{$h.Millis}} ms{{end}}</td></tr>
{{end}}</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>ALARM ON</th><td>{{.Counts.AlarmOn}}</td></tr>
<tr><th>ALARM OFF</th><td>{{.Counts.AlarmOff}}</td></tr>
<tr><th>HEAT ON</th><td>{{.Counts.HeatOn}}</td></tr>
<tr><th>HEAT OFF</th><td>{{.Counts.HeatOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Clock</th><td>{{.Millis}} ms</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Sampling</th><td>{{.Config.SamplingMs}}ms</td></tr>
<tr><th>Blink</th><td>{{.Config.BlinkMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{range .Config.Timers}}<tr><th>Timer {{.Name}}</th><td>PSC={{.Prescaler}} ARR={{.Period}} ({{.Actual}})</td></tr>
{{end}}</table>

<p><a href="/index.json">JSON</a> · <a href="/history.json">History</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// The template needs Uptime as a field, not a method with a receiver copy.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
