// Package assistant proxies dashboard chat questions to the Anthropic
// Messages API, with a slice of recent sessions folded into the system
// prompt for context.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shorelinehq/shoreline/internal/models"
)

const (
	apiVersion       = "2023-06-01"
	maxTokens        = 1000
	temperature      = 0.7
	maxContextCount  = 3
	defaultBaseURL   = "https://api.anthropic.com"
	maxResponseBytes = 1 << 20
)

// ErrAPIKeyRequired is returned by NewClient when no key is configured.
var ErrAPIKeyRequired = errors.New("anthropic api key is required")

// ErrEmptyReply is returned when the upstream answer carries no text.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Client calls the Anthropic Messages endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewClient builds a client. baseURL and httpClient may be empty/nil.
func NewClient(apiKey, model, baseURL string, httpClient *http.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Ask sends the user's question with recent sessions as context and
// returns the assistant's text reply.
func (c *Client) Ask(ctx context.Context, question string, sessions []models.Session) (string, error) {
	payload, err := json.Marshal(messageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      systemPrompt(sessions),
		Messages:    []message{{Role: "user", Content: question}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal messages payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call messages api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read messages response: %w", err)
	}

	var decoded messageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decoded.Error != nil {
			return "", fmt.Errorf("messages api: %s: %s", decoded.Error.Type, decoded.Error.Message)
		}
		return "", fmt.Errorf("messages api: unexpected status %d", resp.StatusCode)
	}
	for _, block := range decoded.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyReply
}

// systemPrompt embeds up to three sessions as JSON so the model can
// answer questions about what is on screen.
func systemPrompt(sessions []models.Session) string {
	var b strings.Builder
	b.WriteString("You are a support operations assistant for a customer service dashboard. ")
	b.WriteString("Answer questions about the sessions below concisely. ")
	b.WriteString("If the answer is not in the data, say so.")

	if len(sessions) > maxContextCount {
		sessions = sessions[:maxContextCount]
	}
	if len(sessions) > 0 {
		b.WriteString("\n\nCurrent sessions:\n")
		for _, session := range sessions {
			encoded, err := json.Marshal(session)
			if err != nil {
				continue
			}
			b.Write(encoded)
			b.WriteString("\n")
		}
	}
	return b.String()
}
