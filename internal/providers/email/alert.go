package email

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	changedomain "github.com/adwatchhq/adwatch/internal/change/domain"
)

// ChangeAlert composes the subject and HTML body for a change event email.
// Subject shape: [SEVERITY] changeType - resourceName.
func ChangeAlert(event *changedomain.ChangeEvent) (subject string, htmlBody string) {
	subject = fmt.Sprintf("[%s] %s - %s",
		strings.ToUpper(string(event.Severity)),
		event.ChangeType,
		event.ResourceName,
	)

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(subject))
	fmt.Fprintf(&b, "<p>%s %q on %s changed.</p>",
		html.EscapeString(string(event.ResourceType)),
		html.EscapeString(event.ResourceName),
		html.EscapeString(string(event.Platform)),
	)
	b.WriteString("<table border=\"1\" cellpadding=\"4\">")
	writeRow(&b, "Resource Type", string(event.ResourceType))
	writeRow(&b, "Platform", string(event.Platform))
	writeRow(&b, "Severity", string(event.Severity))
	writeRow(&b, "Detected At", event.DetectedAt.UTC().Format(time.RFC3339))

	names := make([]string, 0, len(event.Diff))
	for name := range event.Diff {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if pair, ok := event.Diff[name].(map[string]any); ok {
			writeRow(&b, name, fmt.Sprintf("%s -> %s", renderValue(pair["before"]), renderValue(pair["after"])))
		}
	}
	b.WriteString("</table>")

	return subject, b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<tr><td><b>%s</b></td><td>%s</td></tr>", html.EscapeString(label), html.EscapeString(value))
}

func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "-"
	case string:
		return value
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(raw)
	}
}
