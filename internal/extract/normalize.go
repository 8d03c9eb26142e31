package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shorelinehq/shoreline/internal/models"
)

// Row is one upstream record, keyed by trimmed header name.
type Row map[string]string

// Candidate header aliases per target attribute, tried in order. Matching
// is exact post-trim, not fuzzy; the first non-empty cell wins.
var (
	sessionIDAliases  = []string{"Session ID", "ID", "id"}
	customerIDAliases = []string{"Customer ID", "Customer", "Name", "customer"}
	createdAtAliases  = []string{"Created", "Date", "Timestamp"}
	statusAliases     = []string{"Status", "State"}
	escalateAliases   = []string{"Escalation Recommended", "Escalate"}
	tagsAliases       = []string{"Tags", "Categories"}
	sentimentAliases  = []string{"Sentiment", "Mood"}
	turnsAliases      = []string{"Conversation", "Messages", "Chat"}
	toolsAliases      = []string{"Tools Used", "Actions"}
)

// timestampLayouts covers the date shapes shared views emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// SessionFromRow maps one upstream row onto the Session schema. index is
// 1-based and names the session when no ID column is present. The mapping
// never fails: every malformed cell resolves to its documented default.
func SessionFromRow(row Row, index int, now time.Time) models.Session {
	createdAt := now
	if raw := pick(row, createdAtAliases); raw != "" {
		if ts, ok := parseTimestamp(raw); ok {
			createdAt = ts
		}
	}

	sessionID := pick(row, sessionIDAliases)
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%d", index)
	}

	customerID := pick(row, customerIDAliases)
	if customerID == "" {
		customerID = "Unknown"
	}

	return models.Session{
		SessionID:             sessionID,
		CustomerID:            customerID,
		CreatedAt:             createdAt,
		Status:                models.MapStatus(pick(row, statusAliases)),
		EscalationRecommended: models.ParseFlag(pick(row, escalateAliases)),
		Tags:                  ParseTags(pick(row, tagsAliases)),
		Sentiment:             models.MapSentiment(pick(row, sentimentAliases)),
		Turns:                 ParseTurns(pick(row, turnsAliases), now),
		Tools:                 ParseTools(pick(row, toolsAliases), now),
	}
}

// SessionsFromCSV parses a whole CSV body: header line plus zero or more
// data rows, one Session per row, order preserved.
func SessionsFromCSV(body string, now time.Time) []models.Session {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) < 2 {
		return []models.Session{}
	}

	headers := ParseLine(lines[0])
	sessions := make([]models.Session, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		values := ParseLine(lines[i])
		row := Row{}
		for j, header := range headers {
			if j < len(values) {
				row[strings.TrimSpace(header)] = values[j]
			} else {
				row[strings.TrimSpace(header)] = ""
			}
		}
		sessions = append(sessions, SessionFromRow(row, i, now))
	}
	return sessions
}

// ParseTags accepts either a JSON array literal or a comma-separated
// string; entries are trimmed and empties dropped.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return cleanTags(parsed)
		}
	}
	return cleanTags(strings.Split(raw, ","))
}

func cleanTags(entries []string) []string {
	tags := []string{}
	for _, tag := range entries {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func pick(row Row, aliases []string) string {
	for _, alias := range aliases {
		if value := strings.TrimSpace(row[alias]); value != "" {
			return value
		}
	}
	return ""
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
