// Package format renders log lines from %placeholder% templates and dumps
// structured values in a human-readable layout.
package format

import "strings"

// Placeholder names understood by the API and error templates.
const (
	DateTime  = "date_time"
	IP        = "ip"
	RequestID = "request_id"
	Path      = "path"
	Msg       = "msg"
	Errno     = "errno"
	Errstr    = "errstr"
	Errfile   = "errfile"
	Errline   = "errline"
	Backtrace = "backtrace"
)

// TimeLayout is the layout of %date_time%.
const TimeLayout = "2006-01-02 15:04:05"

// Layouts used when a template is empty.
const (
	FallbackLayout      = "%date_time% %ip% %path% - %msg%"
	ErrorFallbackLayout = "%date_time% %errstr% %errfile% [Line: %errline%]\n%backtrace%"
)

// Fields maps placeholder names (without the surrounding %) to values.
type Fields map[string]string

// Render substitutes every %name% token of tmpl that has an entry in fields.
// Substitution is simultaneous: values are copied to the output and never
// rescanned, so a value containing "%msg%" is written literally. Tokens
// without a field are left verbatim. An empty tmpl renders FallbackLayout.
func Render(tmpl string, fields Fields) string {
	if tmpl == "" {
		tmpl = FallbackLayout
	}
	return render(tmpl, fields)
}

// RenderError renders an error line. An empty tmpl renders
// ErrorFallbackLayout, in which an unknown line number is shown as "?".
func RenderError(tmpl string, fields Fields) string {
	if tmpl != "" {
		return render(tmpl, fields)
	}
	if line := fields[Errline]; line == "" || line == "0" {
		withLine := make(Fields, len(fields)+1)
		for k, v := range fields {
			withLine[k] = v
		}
		withLine[Errline] = "?"
		fields = withLine
	}
	return render(ErrorFallbackLayout, fields)
}

func render(tmpl string, fields Fields) string {
	var b strings.Builder
	b.Grow(len(tmpl) + 64)

	for i := 0; i < len(tmpl); {
		start := strings.IndexByte(tmpl[i:], '%')
		if start < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		b.WriteString(tmpl[i : i+start])
		i += start

		end := strings.IndexByte(tmpl[i+1:], '%')
		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}

		if v, ok := fields[tmpl[i+1:i+1+end]]; ok {
			b.WriteString(v)
			i += end + 2
			continue
		}

		// Not a known token: emit the '%' and let the closing one start
		// the next candidate, so "%%msg%" still substitutes.
		b.WriteByte('%')
		i++
	}

	return b.String()
}
