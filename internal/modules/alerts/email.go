package alerts

import (
	"bytes"
	"html/template"
)

var alertTemplate = template.Must(template.New("alerts").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 640px; margin: 0 auto;">
<h1>Price Alerts</h1>
<p>The following symbols on your watchlist made significant moves:</p>
<table cellpadding="6">
<tr><th align="left">Symbol</th><th align="right">Price</th><th align="right">Change</th><th align="left">Direction</th></tr>
{{range .}}<tr><td>{{.Symbol}}</td><td align="right">${{printf "%.2f" .Price}}</td><td align="right">{{printf "%+.2f" .ChangePercent}}%</td><td>{{.Direction}}</td></tr>
{{end}}</table>
<p style="color: #888; font-size: 12px;">You are receiving this alert because these symbols are on your watchlist.</p>
</body>
</html>`))

func renderAlertEmail(alerts []PriceAlert) string {
	var buf bytes.Buffer
	// The template cannot fail on this data shape.
	_ = alertTemplate.Execute(&buf, alerts)
	return buf.String()
}
