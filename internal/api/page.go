package api

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>hostwarden — Alerts</title>
<style>
body { font-family: Arial, sans-serif; background: #1a1a2e; color: #eee; margin: 0; padding: 20px; }
h1 { color: #e94560; text-align: center; margin-bottom: 30px; }
table { width: 100%; border-collapse: collapse; background: #16213e; }
th { background: #0f3460; color: #e94560; padding: 12px 15px; text-align: left; }
td { padding: 10px 15px; border-bottom: 1px solid #0f3460; word-break: break-all; }
tr:hover { background: #0f3460; }
.none { text-align: center; padding: 40px; color: #aaa; }
.badge { display: inline-block; background: #e94560; color: #fff; border-radius: 12px; padding: 2px 10px; font-size: 0.8em; }
.level-high { color: #ff5252; font-weight: bold; }
.level-medium { color: #ffb74d; }
.level-low { color: #81c784; }
</style>
</head>
<body>
<h1>&#9888; hostwarden — Alerts</h1>
{{if .Alerts}}
<p style="text-align:center;">Total alerts: <span class="badge">{{.Stats.Total}}</span></p>
<table>
<thead>
<tr><th>Timestamp</th><th>Name</th><th>PID</th><th>CPU (%)</th><th>Memory (MB)</th><th>Path</th><th>Level</th><th>Score</th></tr>
</thead>
<tbody>
{{range .Alerts}}
<tr>
<td>{{.Timestamp.Format "2006-01-02 15:04:05 MST"}}</td>
<td>{{.Name}}</td>
<td>{{.PID}}</td>
<td>{{printf "%.2f" .CPUPercent}}</td>
<td>{{printf "%.2f" .MemoryMB}}</td>
<td>{{if .Path}}{{.Path}}{{else}}&mdash;{{end}}</td>
<td class="level-{{.ThreatLevel}}">{{.ThreatLevel}}</td>
<td>{{if .ThreatScore}}{{.ThreatScore}}{{else}}&mdash;{{end}}</td>
</tr>
{{end}}
</tbody>
</table>
{{else}}
<div class="none">No alerts recorded yet.</div>
{{end}}
</body>
</html>
`
