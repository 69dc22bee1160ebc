package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
)

// digestTemplate renders the full digest. Sections with no content collapse
// away entirely.
var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 640px; margin: 0 auto;">
<h1>Your Market Digest</h1>
{{if .Summary}}
<h2>Market Summary</h2>
<p>The market is <strong>{{.Summary.Trend}}</strong> today.</p>
<table cellpadding="6">
<tr><th align="left">Index</th><th align="right">Price</th><th align="right">Change</th></tr>
{{range .Summary.Indexes}}<tr><td>{{.Symbol}}</td><td align="right">${{printf "%.2f" .Price}}</td><td align="right">{{printf "%+.2f" .ChangePercent}}%</td></tr>
{{end}}</table>
{{end}}
{{if .Watchlist}}
<h2>Your Watchlist</h2>
<table cellpadding="6">
<tr><th align="left">Symbol</th><th align="left">Company</th><th align="left">Sector</th><th align="right">Price</th><th align="right">Change</th></tr>
{{range .Watchlist}}<tr><td>{{.Symbol}}</td><td>{{.Name}}</td><td>{{.Sector}}</td><td align="right">${{printf "%.2f" .Price}}</td><td align="right">{{printf "%+.2f" .ChangePercent}}%</td></tr>
{{end}}</table>
{{end}}
{{if .OptionsFlow}}
<h2>Options Flow</h2>
<ul>
{{range .OptionsFlow}}<li>{{.Ticker}} {{.ContractType}} ${{printf "%.0f" .Strike}} &mdash; ${{printf "%.0f" .Premium}} premium</li>
{{end}}</ul>
{{end}}
{{if .DarkPool}}
<h2>Dark Pool Activity</h2>
<ul>
{{range .DarkPool}}<li>{{.Ticker}}: {{.Volume}} shares at ${{printf "%.2f" .Price}}</li>
{{end}}</ul>
{{end}}
{{if .Insights}}
<h2>Insights</h2>
<ul>
{{range .Insights}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
{{if .Recommendations}}
<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<p style="color: #888; font-size: 12px;">You are receiving this digest based on your newsletter preferences.</p>
</body>
</html>`))

// renderHTML renders the digest content to an HTML body.
func renderHTML(content *Content) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, content); err != nil {
		return "", fmt.Errorf("failed to render newsletter: %w", err)
	}
	return buf.String(), nil
}
