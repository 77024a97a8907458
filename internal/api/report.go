package api

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// renderReportHTML converts the Markdown report to a standalone HTML
// page suitable for printing or emailing to a service provider.
func renderReportHTML(report string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(report), &buf); err != nil {
		return "", err
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Conversation Report</title></head>
<body style="font-family: sans-serif; font-size: 14px; line-height: 1.5; max-width: 48rem; margin: 2rem auto;">
%s
</body></html>`, buf.String())

	return html, nil
}
