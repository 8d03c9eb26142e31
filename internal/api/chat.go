package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/shorelinehq/shoreline/internal/models"
)

// Assistant answers dashboard questions with session context.
type Assistant interface {
	Ask(ctx context.Context, question string, sessions []models.Session) (string, error)
}

// ChatHandler proxies dashboard chat to the assistant. Client may be nil
// when no API key is configured.
type ChatHandler struct {
	Client Assistant
}

// chatSuggestions are follow-up prompts the dashboard renders as chips.
var chatSuggestions = []string{
	"Which sessions need escalation?",
	"Summarize the most frustrated customers",
	"What are the most common tags today?",
	"Which sessions used the refund tool?",
}

type chatRequest struct {
	Message  string           `json:"message"`
	Sessions []models.Session `json:"sessions"`
}

type chatResponse struct {
	Content     string   `json:"content"`
	Suggestions []string `json:"suggestions"`
}

// Handle serves POST /api/chat.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		sendJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "chat is not configured; set ANTHROPIC_API_KEY"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	content, err := h.Client.Ask(r.Context(), req.Message, req.Sessions)
	if err != nil {
		log.Printf("api: chat: %v", err)
		sendJSON(w, http.StatusBadGateway, errorResponse{Error: "assistant is unavailable"})
		return
	}

	sendJSON(w, http.StatusOK, chatResponse{
		Content:     content,
		Suggestions: chatSuggestions,
	})
}
