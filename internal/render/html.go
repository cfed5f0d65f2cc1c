package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/vvv850/infra-mapper/internal/topology"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Docker Infrastructure Map</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; color: #333; margin: 24px; }
h1 { color: #2196f3; margin-bottom: 4px; }
h2.ok { color: #42a5f5; margin-top: 28px; }
h2.failed { color: #ef5350; margin-top: 28px; }
h3.stack { color: #ffa726; margin-top: 18px; margin-bottom: 6px; }
h3.standalone { color: #ab47bc; margin-top: 18px; margin-bottom: 6px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 20px; font-size: 14px; }
th { background-color: #e8e8e8; border: 1px solid #ccc; padding: 10px 14px; text-align: left; }
td { border: 1px solid #ddd; padding: 8px 14px; }
.timestamp { color: #999; font-size: 13px; }
.reason { color: #c62828; font-style: italic; }
.warnings { color: #e65100; font-size: 13px; }
</style>
</head>
<body>
<h1>Docker Infrastructure Map</h1>
<p class="timestamp"><em>Generated on {{.GeneratedAt}}</em></p>
{{- range .Fleet.Servers}}
{{- if .Failed}}
<h2 class="failed">{{.Host}} (failed)</h2>
<p class="reason">{{.Err.Kind}}: {{.Err.Reason}}</p>
{{- else}}
<h2 class="ok">{{.Host}}</h2>
{{- if gt .Warnings 0}}
<p class="warnings">{{.Warnings}} line(s) of docker output could not be parsed</p>
{{- end}}
{{- range .Stacks}}
<h3 class="stack">Stack: {{.Project}}</h3>
{{template "containers" .Containers}}
{{- end}}
{{- if .Standalone}}
<h3 class="standalone">Standalone Containers</h3>
{{template "containers" .Standalone}}
{{- end}}
{{- end}}
{{- end}}
</body>
</html>
{{- define "containers"}}
<table>
<thead><tr><th>Container</th><th>Image</th><th>State</th><th>Ports</th></tr></thead>
<tbody>
{{- range .}}
<tr><td>{{.Name}}</td><td>{{.Image}}</td><td>{{.State}}</td><td>{{ports .Ports}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
`

var htmlTemplate = template.Must(
	template.New("infra").Funcs(template.FuncMap{"ports": portsCell}).Parse(htmlPage),
)

// HTML renders the fleet as a standalone page
func HTML(fleet *topology.Fleet) (string, error) {
	var out strings.Builder

	data := struct {
		Fleet       *topology.Fleet
		GeneratedAt string
	}{
		Fleet:       fleet,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	if err := htmlTemplate.Execute(&out, data); err != nil {
		return "", err
	}

	return out.String(), nil
}

func portsCell(ports []topology.PortBinding) string {
	if len(ports) == 0 {
		return "—"
	}

	labels := make([]string, 0, len(ports))

	for _, port := range ports {
		labels = append(labels, portLabel(port))
	}

	return strings.Join(labels, ", ")
}
