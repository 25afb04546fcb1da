// Package render orders and labels a record's fields for display.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ConsignmentExtraction/pkg/models"
)

var upperRun = regexp.MustCompile(`([A-Z]+)`)

// Field is one displayable entry of a record
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Link  bool   `json:"link,omitempty"`
}

// Label turns a field name into a heading, e.g. SerialNumberGPS -> "Serial Number GPS"
func Label(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	label = upperRun.ReplaceAllString(label, " $1")
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func valueText(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return models.NotAvailable
	case string:
		s = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(b)
		}
	}
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}

func isLink(key string, v any) bool {
	s, ok := v.(string)
	if !ok || !strings.EqualFold(key, string(models.CRID)) {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fields lists the known fields first in their fixed order, then any other keys sorted.
// The raw-text fallback is not a field.
func Fields(record models.ExtractionRecord) []Field {
	seen := make(map[string]bool, len(record))
	keys := make([]string, 0, len(record))
	for _, f := range models.PrimaryFields {
		if _, ok := record[string(f)]; ok {
			keys = append(keys, string(f))
			seen[string(f)] = true
		}
	}
	for _, k := range record.StructuredKeys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}

	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		v := record[k]
		out = append(out, Field{
			Key:   k,
			Label: Label(k),
			Value: valueText(v),
			Link:  isLink(k, v),
		})
	}
	return out
}

// Text renders a result as plain lines for terminal output
func Text(res models.ExtractionResult) string {
	fields := Fields(res.Record)
	raw := res.Record.RawText()

	if len(fields) == 0 {
		if raw != "" {
			return "Response from the model (not valid JSON):\n" + raw
		}
		return "No details extracted or an error occurred."
	}

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", f.Label, f.Value)
	}
	if raw != "" {
		b.WriteString("\n\nNote: Part of the response could not be parsed as JSON:\n")
		b.WriteString(raw)
	}
	return b.String()
}
