package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/bowl-monitor/internal/status"
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
		case "FULL":
			return "full"
		case "EMPTY_UNCONFIRMED":
			return "pending"
		case "EMPTY_ALERTED":
			return "empty"
		}
		return "unknown"
	},
	"utc": func(t time.Time) string {
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Bowl Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.full { color: green; font-weight: bold; }
.pending { color: orange; }
.empty { color: red; font-weight: bold; }
.unknown { color: #888; }
</style>
</head>
<body>
<h1>Bowl Monitor{{if .Config.Device}}: {{.Config.Device}}{{end}}</h1>

<h2>State</h2>
<table>
<tr><th>Water</th><td class="{{stateClass .State}}">{{.State}}</td></tr>
{{with .LastCycle}}<tr><th>Last reading</th><td>{{printf "%.1f" .Reading}}{{if .SampleError}} (error: {{.SampleError}}){{end}}</td></tr>
<tr><th>Boot</th><td>{{.Record.BootCount}}</td></tr>
<tr><th>Dry wakes</th><td>{{.Record.NoWaterCount}}</td></tr>
<tr><th>Reminder count</th><td>{{.Record.ReminderCount}}</td></tr>
<tr><th>Alerted</th><td>{{if .Record.HaveAlerted}}yes{{else}}no{{end}}</td></tr>
<tr><th>Last wake</th><td>{{utc .At}} ({{.ID}})</td></tr>{{end}}
<tr><th>Alerts sent</th><td>{{.Alerts}}</td></tr>
</table>

<h2>Maintenance window</h2>
<table>
<tr><th>Open</th><td>{{if .Window.Open}}yes{{else}}no{{end}}</td></tr>
<tr><th>Progress</th><td>{{.Window.Iteration}} / {{.Window.Budget}}</td></tr>
</table>

<h2>Recent readings</h2>
<table>
{{range .History}}<tr><th>{{utc .Time}}</th><td class="{{if .Empty}}empty{{else}}full{{end}}">{{printf "%.1f" .Value}}</td></tr>
{{else}}<tr><td>none yet</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{utc .StartTime}}</td></tr>
<tr><th>Threshold</th><td>{{.Config.EmptyThreshold}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceStreak}} wakes</td></tr>
<tr><th>Reminder</th><td>every {{.Config.ReminderPeriod}} wakes</td></tr>
<tr><th>Sleep</th><td>{{if .Config.WakeSchedule}}{{.Config.WakeSchedule}}{{else}}{{.Config.SleepSeconds}}s{{end}}</td></tr>
<tr><th>Notifiers</th><td>{{range $i, $n := .Config.Notifiers}}{{if $i}}, {{end}}{{$n}}{{else}}log only{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has methods but the template needs plain fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		State  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		State:    snap.StateString(),
	}
	return indexTmpl.Execute(w, data)
}
