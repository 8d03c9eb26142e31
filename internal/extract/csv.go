// Package extract turns a public shared-spreadsheet link into normalized
// session records. Acquisition strategies are tried in a fixed order and
// every parser in the package recovers to a documented default instead of
// failing a row.
package extract

import "strings"

// ParseLine tokenizes one CSV line. A double quote toggles quoted state
// (doubled-quote escaping is deliberately not supported), commas split
// fields only outside quotes, and every field is trimmed. An unbalanced
// quote consumes the rest of the line as a single field.
func ParseLine(line string) []string {
	fields := []string{}
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// LooksLikeCSV reports whether a response body is plausible tabular data:
// it must contain a comma and a newline and must not be an HTML page.
func LooksLikeCSV(body string) bool {
	return strings.Contains(body, ",") && strings.Contains(body, "\n") && !LooksLikeHTML(body)
}

// LooksLikeHTML reports whether a body carries an HTML document marker.
func LooksLikeHTML(body string) bool {
	return strings.Contains(body, "<html")
}
