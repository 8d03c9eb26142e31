package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shorelinehq/shoreline/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseTurnsEmpty(t *testing.T) {
	assert.Empty(t, ParseTurns("", testNow))
	assert.Empty(t, ParseTurns("   ", testNow))
}

func TestParseTurnsJSONArray(t *testing.T) {
	raw := `[{"speaker":"user","text":"hello","timestamp":"2025-05-01T10:00:00Z"},{"speaker":"agent","text":"hi there","timestamp":"2025-05-01T10:01:00Z"}]`

	turns := ParseTurns(raw, testNow)
	require.Len(t, turns, 2)

	assert.Equal(t, models.SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), turns[0].Timestamp)

	assert.Equal(t, models.SpeakerAgent, turns[1].Speaker)
	assert.Equal(t, "hi there", turns[1].Text)
}

func TestParseTurnsJSONWithoutTimestamps(t *testing.T) {
	raw := `[{"speaker":"user","text":"a"},{"speaker":"agent","text":"b"}]`

	turns := ParseTurns(raw, testNow)
	require.Len(t, turns, 2)
	assert.True(t, turns[0].Timestamp.Before(turns[1].Timestamp))
	assert.Equal(t, testNow.Add(-2*time.Minute), turns[0].Timestamp)
	assert.Equal(t, testNow.Add(-time.Minute), turns[1].Timestamp)
}

func TestParseTurnsLineFormat(t *testing.T) {
	raw := "User: I need help\nAgent: Happy to help\nSupport: checking now\nCustomer: thanks"

	turns := ParseTurns(raw, testNow)
	require.Len(t, turns, 4)

	assert.Equal(t, models.SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "I need help", turns[0].Text)
	assert.Equal(t, models.SpeakerAgent, turns[1].Speaker)
	assert.Equal(t, "Happy to help", turns[1].Text)
	assert.Equal(t, models.SpeakerAgent, turns[2].Speaker)
	assert.Equal(t, "checking now", turns[2].Text)
	// "Customer:" is stripped but does not mark the agent.
	assert.Equal(t, models.SpeakerUser, turns[3].Speaker)
	assert.Equal(t, "thanks", turns[3].Text)

	for i := 1; i < len(turns); i++ {
		assert.True(t, turns[i-1].Timestamp.Before(turns[i].Timestamp),
			"timestamps must increase with textual order")
	}
}

func TestParseTurnsSkipsBlankLines(t *testing.T) {
	turns := ParseTurns("first\n\n\nagent: second\n", testNow)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Text)
	assert.Equal(t, models.SpeakerAgent, turns[1].Speaker)
}

func TestParseTurnsMalformedJSONFallsThrough(t *testing.T) {
	turns := ParseTurns("[not json at all", testNow)
	require.Len(t, turns, 1)
	assert.Equal(t, models.SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "[not json at all", turns[0].Text)
}

func TestParseToolsEmpty(t *testing.T) {
	assert.Empty(t, ParseTools("", testNow))
}

func TestParseToolsJSONArray(t *testing.T) {
	raw := `[{"name":"Account Lookup","payload":{"customerId":"c1"},"success":false},{"name":"billing_refund"}]`

	tools := ParseTools(raw, testNow)
	require.Len(t, tools, 2)

	assert.Equal(t, "account_lookup", tools[0].Name)
	assert.Equal(t, map[string]any{"customerId": "c1"}, tools[0].Payload)
	assert.False(t, tools[0].Success)

	assert.Equal(t, "billing_refund", tools[1].Name)
	assert.Empty(t, tools[1].Payload)
	assert.True(t, tools[1].Success, "success defaults to true")
}

func TestParseToolsCommaSeparated(t *testing.T) {
	tools := ParseTools("Account Lookup, password reset ,", testNow)
	require.Len(t, tools, 2)

	assert.Equal(t, "account_lookup", tools[0].Name)
	assert.Equal(t, "password_reset", tools[1].Name)
	for _, tool := range tools {
		assert.True(t, tool.Success)
		assert.NotNil(t, tool.Payload)
		assert.Empty(t, tool.Payload)
	}
	assert.Equal(t, testNow.Add(-60*time.Second), tools[0].Timestamp)
	assert.Equal(t, testNow.Add(-30*time.Second), tools[1].Timestamp)
}

func TestParseToolsMalformedJSONYieldsEmpty(t *testing.T) {
	assert.Empty(t, ParseTools("[{broken", testNow))
}
