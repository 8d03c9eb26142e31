// Package webhook receives sessions pushed directly by external systems,
// bypassing spreadsheet extraction entirely.
package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shorelinehq/shoreline/internal/models"
	"github.com/shorelinehq/shoreline/internal/ws"
)

// SessionWriter is the subset of the session store the handler needs.
type SessionWriter interface {
	Upsert(ctx context.Context, session models.Session) error
	List(ctx context.Context, limit int) ([]models.Session, error)
}

// SessionHandler accepts pushed sessions and lists stored ones.
type SessionHandler struct {
	store SessionWriter
	hub   *ws.Hub
	now   func() time.Time
}

// NewSessionHandler creates a handler. store may be nil when no database
// is configured; endpoints then answer 503.
func NewSessionHandler(store SessionWriter, hub *ws.Hub) *SessionHandler {
	return &SessionHandler{
		store: store,
		hub:   hub,
		now:   time.Now,
	}
}

type receiveResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Receive handles POST /api/webhook/session.
func (h *SessionHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "session storage is not configured; set DATABASE_URL")
		return
	}

	var session models.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	session = h.normalize(session)

	if err := h.store.Upsert(r.Context(), session); err != nil {
		log.Printf("webhook: upsert session %s: %v", session.SessionID, err)
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRefresh(session.SessionID, "webhook")
	}

	writeJSON(w, http.StatusOK, receiveResponse{
		Success:   true,
		Message:   "session stored",
		SessionID: session.SessionID,
	})
}

// List handles GET /api/webhook/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "session storage is not configured; set DATABASE_URL")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	sessions, err := h.store.List(r.Context(), limit)
	if err != nil {
		log.Printf("webhook: list sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// normalize fills defaults and folds free-text fields onto the enums, so
// stored rows look the same regardless of who pushed them.
func (h *SessionHandler) normalize(session models.Session) models.Session {
	session.SessionID = strings.TrimSpace(session.SessionID)
	if session.SessionID == "" {
		session.SessionID = "session_" + uuid.NewString()
	}
	if strings.TrimSpace(session.CustomerID) == "" {
		session.CustomerID = "Unknown"
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = h.now().UTC()
	}
	session.Status = models.MapStatus(string(session.Status))
	session.Sentiment = models.MapSentiment(string(session.Sentiment))
	if session.Tags == nil {
		session.Tags = []string{}
	}
	if session.Turns == nil {
		session.Turns = []models.Turn{}
	}
	if session.Tools == nil {
		session.Tools = []models.ToolCall{}
	}
	return session
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("webhook: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
