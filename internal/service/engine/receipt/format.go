package receipt

import (
	"bytes"
	"html/template"
	"strings"
	"unicode/utf8"
)

// DefaultWidth is the character width of an 80mm thermal roll.
const DefaultWidth = 42

// Text lays the document out in fixed-width columns.
func (d Document) Text(width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var sb strings.Builder
	for _, l := range d.Lines {
		switch l.Kind {
		case KindDivider:
			sb.WriteString(strings.Repeat("-", width))
		case KindHeader, KindFooter:
			sb.WriteString(center(l.Left, width))
		case KindTotal:
			sb.WriteString(columns(strings.ToUpper(l.Left), l.Right, width))
		default:
			sb.WriteString(columns(l.Left, l.Right, width))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func columns(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 2 {
		gap = 2
	}

	return left + strings.Repeat(" ", gap) + right
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}

	return strings.Repeat(" ", (width-n)/2) + s
}

var htmlTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Receipt</title>
<style>
body { font-family: 'Courier New', monospace; width: 280px; margin: 0; padding: 10px; font-size: 12px; }
.header { text-align: center; margin-bottom: 15px; font-weight: bold; }
.line { border-bottom: 1px dashed #000; margin: 10px 0; }
.item { display: flex; justify-content: space-between; margin: 5px 0; }
.total { font-weight: bold; font-size: 14px; }
.footer { text-align: center; margin-top: 15px; }
</style>
</head>
<body>
{{- range .Lines}}
{{- if eq .Kind 0}}
<div class="header">{{.Left}}</div>
{{- else if eq .Kind 1}}
<div class="line"></div>
{{- else if eq .Kind 6}}
<div class="footer">{{.Left}}</div>
{{- else}}
<div class="item{{if .Emphasized}} total{{end}}"><span>{{.Left}}</span><span>{{.Right}}</span></div>
{{- end}}
{{- end}}
</body>
</html>
`))

// HTML renders the document as a receipt-sized page.
func (d Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, d); err != nil {
		return "", err
	}

	return buf.String(), nil
}
