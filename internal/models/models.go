// Package models defines the session domain types shared across the
// extraction pipeline, the HTTP API, and the webhook receiver.
package models

import (
	"strings"
	"time"
)

// Status describes where a session sits in its support lifecycle.
type Status string

const (
	StatusOpen      Status = "open"
	StatusResolved  Status = "resolved"
	StatusEscalated Status = "escalated"
)

// Sentiment is the coarse customer mood derived from upstream data.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentFrustrated Sentiment = "frustrated"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Turn is one message in a session's conversation history.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolCall records one tool invocation made during a session.
type ToolCall struct {
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Success   bool           `json:"success"`
}

// Session is one customer-service conversation record. Field names follow
// the dashboard wire contract.
type Session struct {
	SessionID             string     `json:"sessionId"`
	CustomerID            string     `json:"customerId"`
	CreatedAt             time.Time  `json:"createdAt"`
	Status                Status     `json:"status"`
	EscalationRecommended bool       `json:"escalationRecommended"`
	Tags                  []string   `json:"tags"`
	Sentiment             Sentiment  `json:"sentiment"`
	Turns                 []Turn     `json:"turns"`
	Tools                 []ToolCall `json:"tools"`
}

// MapStatus folds a free-text status value onto the Status enum. Total:
// any input, including empty or garbage, maps to exactly one value.
func MapStatus(raw string) Status {
	normalized := strings.ToLower(raw)
	switch {
	case strings.Contains(normalized, "resolved") || strings.Contains(normalized, "closed"):
		return StatusResolved
	case strings.Contains(normalized, "escalat"):
		return StatusEscalated
	default:
		return StatusOpen
	}
}

// MapSentiment folds a free-text mood value onto the Sentiment enum.
func MapSentiment(raw string) Sentiment {
	normalized := strings.ToLower(raw)
	switch {
	case strings.Contains(normalized, "positive") || strings.Contains(normalized, "happy") || strings.Contains(normalized, "satisfied"):
		return SentimentPositive
	case strings.Contains(normalized, "negative") || strings.Contains(normalized, "frustrated") || strings.Contains(normalized, "angry"):
		return SentimentFrustrated
	default:
		return SentimentNeutral
	}
}

// truthyTokens is the fixed set of values treated as true in flag columns.
var truthyTokens = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
	"on":   {},
}

// ParseFlag interprets a free-text boolean cell. Anything outside the
// truthy set, including empty input, is false.
func ParseFlag(raw string) bool {
	_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
