package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/knock-lock/internal/status"
	"github.com/sweeney/knock-lock/internal/store"
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
	"seconds": func(d time.Duration) int64 {
		return int64(d.Truncate(time.Second).Seconds())
	},
	"localtime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04:05")
	},
}).Parse(indexHTML))

type indexData struct {
	Snap     status.Snapshot
	Attempts []*store.Attempt
}

func renderHTML(w io.Writer, snap status.Snapshot, attempts []*store.Attempt) {
	if err := indexTmpl.Execute(w, indexData{Snap: snap, Attempts: attempts}); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Knock Lock</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.state-IDLE { color: #888; }
.state-LISTENING { color: orange; font-weight: bold; }
.state-UNLOCKED { color: green; font-weight: bold; }
.state-LOCKOUT { color: red; font-weight: bold; }
.ok { color: green; }
.err { color: red; }
.result-UNLOCKED { color: green; }
.result-DENIED { color: #888; }
.result-LOCKOUT { color: red; }
</style>
</head>
<body>
<h1>Knock Lock</h1>
<table>
<tr><th>State</th><td class="state-{{.Snap.State}}" id="state">{{.Snap.State}}</td></tr>
<tr><th>Fail streak</th><td id="streak">{{.Snap.FailStreak}}</td></tr>
{{if .Snap.LockoutRemaining}}<tr><th>Lockout remaining</th><td>{{seconds .Snap.LockoutRemaining}}s</td></tr>{{end}}
<tr><th>Uptime</th><td>{{uptime .Snap.Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .Snap.MQTTConnected}}ok{{else}}err{{end}}">{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Snap.Config.Broker}})</td></tr>
<tr><th>Knocks</th><td>{{.Snap.Counts.Knocks}}</td></tr>
<tr><th>Unlocks</th><td>{{.Snap.Counts.Unlocks}}</td></tr>
<tr><th>Denials</th><td>{{.Snap.Counts.Denials}}</td></tr>
<tr><th>Lockouts</th><td>{{.Snap.Counts.Lockouts}}</td></tr>
</table>

<h2>Configuration</h2>
<table>
<tr><th>Poll interval</th><td>{{.Snap.Config.PollMs}} ms</td></tr>
<tr><th>Debounce</th><td>{{.Snap.Config.DebounceMs}} ms</td></tr>
<tr><th>Silence timeout</th><td>{{.Snap.Config.SilenceMs}} ms</td></tr>
<tr><th>Pattern length</th><td>{{.Snap.Config.PatternLen}} intervals</td></tr>
<tr><th>Tolerance</th><td>{{.Snap.Config.TolerancePct}}%</td></tr>
<tr><th>Rolling pattern (TOTP)</th><td>{{if .Snap.Config.TOTPEnabled}}enabled{{else}}disabled{{end}}</td></tr>
</table>

<h2>Recent attempts</h2>
<table id="attempts">
<tr><th>Time</th><th>Result</th><th>Intervals (ms)</th></tr>
{{range .Attempts}}<tr><td>{{localtime .Time}}</td><td class="result-{{.Result}}">{{.Result}}</td><td>{{range .IntervalsMs}}{{.}} {{end}}</td></tr>
{{else}}<tr><td colspan="3">none recorded</td></tr>
{{end}}
</table>

<p><a href="/index.json">JSON</a> · <a href="/attempts.json">attempts</a> · <a href="/metrics">metrics</a></p>

<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function(msg) {
    var e = JSON.parse(msg.data);
    document.getElementById("state").textContent = e.state;
    document.getElementById("state").className = "state-" + e.state;
    document.getElementById("streak").textContent = e.fail_streak;
    if (e.event === "UNLOCKED" || e.event === "DENIED" || e.event === "LOCKOUT") {
      var table = document.getElementById("attempts");
      var row = table.insertRow(1);
      row.insertCell(0).textContent = new Date(e.timestamp).toLocaleString();
      var res = row.insertCell(1);
      res.textContent = e.event;
      res.className = "result-" + e.event;
      row.insertCell(2).textContent = (e.intervals_ms || []).join(" ");
    }
  };
})();
</script>
</body>
</html>
`
