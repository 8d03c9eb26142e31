package extract

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shorelinehq/shoreline/internal/models"
)

const (
	turnSpacing = time.Minute
	toolSpacing = 30 * time.Second
)

var rolePrefix = regexp.MustCompile(`(?i)^(user:|agent:|support:|customer:)`)

var whitespaceRun = regexp.MustCompile(`\s+`)

type jsonTurn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ParseTurns converts a conversation cell into ordered turns. Empty input
// yields an empty slice: canned demo conversations belong to the sample
// fallback only, never to real extracted rows. A JSON array is honored
// when it parses; otherwise each line becomes one turn with synthetic
// timestamps spaced one minute apart counting backward from now.
func ParseTurns(raw string, now time.Time) []models.Turn {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.Turn{}
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []jsonTurn
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			turns := make([]models.Turn, 0, len(parsed))
			for i, item := range parsed {
				turns = append(turns, models.Turn{
					Speaker:   speakerFromString(item.Speaker),
					Text:      item.Text,
					Timestamp: timestampOrSpaced(item.Timestamp, now, len(parsed), i, turnSpacing),
				})
			}
			return turns
		}
		// Malformed JSON falls through to the line parser.
	}

	lines := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		// Nothing line-shaped survived; keep the raw text as one user turn.
		return []models.Turn{{Speaker: models.SpeakerUser, Text: raw, Timestamp: now}}
	}

	turns := make([]models.Turn, 0, len(lines))
	for i, line := range lines {
		lower := strings.ToLower(line)
		speaker := models.SpeakerUser
		if strings.Contains(lower, "agent:") || strings.Contains(lower, "support:") {
			speaker = models.SpeakerAgent
		}
		text := strings.TrimSpace(rolePrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		turns = append(turns, models.Turn{
			Speaker:   speaker,
			Text:      text,
			Timestamp: spacedTimestamp(now, len(lines), i, turnSpacing),
		})
	}
	return turns
}

type jsonTool struct {
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload"`
	Timestamp string         `json:"timestamp"`
	Success   *bool          `json:"success"`
}

// ParseTools converts a tools cell into ordered tool calls. Empty input
// and unparseable JSON both yield an empty slice; there is no raw-text
// fallback because bare tool text has no natural single-call shape.
// Comma-separated names become successful zero-payload calls.
func ParseTools(raw string, now time.Time) []models.ToolCall {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.ToolCall{}
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []jsonTool
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return []models.ToolCall{}
		}
		tools := make([]models.ToolCall, 0, len(parsed))
		for i, item := range parsed {
			payload := item.Payload
			if payload == nil {
				payload = map[string]any{}
			}
			success := true
			if item.Success != nil {
				success = *item.Success
			}
			tools = append(tools, models.ToolCall{
				Name:      normalizeToolName(item.Name),
				Payload:   payload,
				Timestamp: timestampOrSpaced(item.Timestamp, now, len(parsed), i, toolSpacing),
				Success:   success,
			})
		}
		return tools
	}

	names := []string{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	tools := make([]models.ToolCall, 0, len(names))
	for i, name := range names {
		tools = append(tools, models.ToolCall{
			Name:      normalizeToolName(name),
			Payload:   map[string]any{},
			Timestamp: spacedTimestamp(now, len(names), i, toolSpacing),
			Success:   true,
		})
	}
	return tools
}

func speakerFromString(raw string) models.Speaker {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.SpeakerAgent)) {
		return models.SpeakerAgent
	}
	return models.SpeakerUser
}

func normalizeToolName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// spacedTimestamp steps backward from now so that item i of n lands at
// now - (n-i)*spacing, preserving textual order as strictly increasing
// timestamps.
func spacedTimestamp(now time.Time, total, index int, spacing time.Duration) time.Time {
	return now.Add(-time.Duration(total-index) * spacing)
}

func timestampOrSpaced(raw string, now time.Time, total, index int, spacing time.Duration) time.Time {
	if ts, ok := parseTimestamp(raw); ok {
		return ts
	}
	return spacedTimestamp(now, total, index, spacing)
}
