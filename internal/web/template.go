package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/mqtt"
	"github.com/sweeney/room-controller/internal/sim"
	"github.com/sweeney/room-controller/internal/status"
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
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	// percent scales v in [0, full] to a CSS width.
	"percent": func(v, full int) int {
		if full <= 0 {
			return 0
		}
		return logic.Clamp(v*100/full, 0, 100)
	},
	"clock": sim.FormatClock,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Room Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.bar { background: #eee; height: 8px; width: 100%; }
.bar span { display: block; height: 8px; background: #4a8; }
.manual { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Room Controller{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Controller</h2>
<table>
<tr><th>State</th><td id="state">{{orUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Mode</th><td id="mode" class="{{if eq (printf "%s" .Mode) "manual"}}manual{{end}}">{{orUnknown (printf "%s" .Mode)}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Window</th><td id="out-win">{{.Outputs.Win}}</td><td><div class="bar"><span id="bar-win" style="width:{{percent .Outputs.Win 255}}%"></span></div></td></tr>
<tr><th>Lamp</th><td id="out-lamp">{{.Outputs.Lamp}}</td><td><div class="bar"><span id="bar-lamp" style="width:{{percent .Outputs.Lamp 255}}%"></span></div></td></tr>
<tr><th>Humidifier</th><td id="out-humid">{{.Outputs.Humid}}</td><td><div class="bar"><span id="bar-humid" style="width:{{percent .Outputs.Humid 255}}%"></span></div></td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>L_int</th><td id="s-lint">{{.Sensors.LInt}}</td></tr>
<tr><th>L_ext</th><td id="s-lext">{{.Sensors.LExt}}</td></tr>
<tr><th>Humidity</th><td id="s-hum">{{.Sensors.Hum}}</td></tr>
<tr><th>Button</th><td id="s-btn">{{if .Sensors.BtnPressed}}pressed{{else}}released{{end}}</td></tr>
</table>

<h2>Timelapse</h2>
<table>
<tr><th>Day clock</th><td>{{clock .Timelapse.Minutes}}</td></tr>
<tr><th>Player</th><td>{{if not .Timelapse.Enabled}}off{{else if .Timelapse.Playing}}playing x{{.Timelapse.Speed}}{{else}}paused{{end}}</td></tr>
{{if not .SimTime.IsZero}}<tr><th>Controller time</th><td>{{.SimTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
<tr><th>Day cycles</th><td>{{.Counts.DayCycles}}</td></tr>
<tr><th>Night cycles</th><td>{{.Counts.NightCycles}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Output changes</th><td>{{.Counts.OutputChanges}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Session</th><td>{{.SessionID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Time scale</th><td>x{{.Config.Controller.TimeScale}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Topic}}";
  var dot = document.getElementById("live-dot");

  function set(id, v) {
    var el = document.getElementById(id);
    if (el) el.textContent = v;
  }

  function bar(id, v) {
    var el = document.getElementById(id);
    if (el) el.style.width = Math.round(v * 100 / 255) + "%";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });
  client.on("reconnect", function() { setDot("pending", "reconnecting"); });
  client.on("offline", function() { setDot("err", "offline"); });
  client.on("error", function() { setDot("err", "error"); });

  client.on("message", function(t, payload) {
    try {
      var c = JSON.parse(payload.toString()).controller;
      if (!c) return;
      set("state", c.state);
      set("mode", c.mode);
      document.getElementById("mode").className = c.mode === "manual" ? "manual" : "";
      set("out-win", c.outputs.win); bar("bar-win", c.outputs.win);
      set("out-lamp", c.outputs.lamp); bar("bar-lamp", c.outputs.lamp);
      set("out-humid", c.outputs.humid); bar("bar-humid", c.outputs.humid);
      set("s-lint", c.sensors.l_int);
      set("s-lext", c.sensors.l_ext);
      set("s-hum", c.sensors.hum);
      set("s-btn", c.sensors.btn ? "pressed" : "released");
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Topic  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Topic:    mqtt.Topic,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
