package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shorelinehq/shoreline/internal/extract"
	"github.com/shorelinehq/shoreline/internal/models"
)

const linkGuidance = "provide the spreadsheet's public viewable link, e.g. https://airtable.com/shrXXXXXXXXXXXXXX"

// SpreadsheetHandler serves the extraction endpoints. All of them run the
// pipeline on demand; nothing link-derived is persisted.
type SpreadsheetHandler struct {
	Pipeline *extract.Pipeline
}

type linkRequest struct {
	ViewableLink string `json:"viewableLink"`
}

type sessionsResponse struct {
	Success  bool             `json:"success"`
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
	Source   string           `json:"source,omitempty"`
	Note     string           `json:"note,omitempty"`
}

type tableInfo struct {
	Name        string   `json:"name"`
	RecordCount int      `json:"recordCount"`
	Fields      []string `json:"fields"`
}

func decodeLink(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return "", false
	}
	if req.ViewableLink == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "viewableLink is required; " + linkGuidance})
		return "", false
	}
	return req.ViewableLink, true
}

// Sessions handles POST /api/spreadsheet/sessions, the dashboard feed.
func (h *SpreadsheetHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	batch, err := h.Pipeline.Extract(r.Context(), link)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidLink) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "could not find a share ID in that link; " + linkGuidance})
			return
		}
		log.Printf("api: extract sessions: %v", err)
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "extraction failed"})
		return
	}

	sendJSON(w, http.StatusOK, sessionsResponse{
		Success:  true,
		Sessions: batch.Sessions,
		Count:    batch.Count,
		Source:   batch.Source,
		Note:     batch.Note,
	})
}

// Test handles POST /api/spreadsheet/test, a connection check that
// reports what a fetch of the link would yield.
func (h *SpreadsheetHandler) Test(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	batch, err := h.Pipeline.Extract(r.Context(), link)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidLink) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "could not find a share ID in that link; " + linkGuidance})
			return
		}
		log.Printf("api: test connection: %v", err)
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "connection test failed"})
		return
	}

	message := "connection ok"
	if batch.Placeholder {
		message = "link reachable but no extractable data; sample data would be served"
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"tableInfo": infoFromBatch(batch),
	})
}

// Info handles POST /api/spreadsheet/info: field names and record count,
// derived from an in-process pipeline run.
func (h *SpreadsheetHandler) Info(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	batch, err := h.Pipeline.Extract(r.Context(), link)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidLink) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "could not find a share ID in that link; " + linkGuidance})
			return
		}
		log.Printf("api: table info: %v", err)
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "info lookup failed"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"tableInfo": infoFromBatch(batch),
	})
}

// Sync handles POST /api/spreadsheet/sync. Extraction is stateless, so
// there is nothing to sync; the endpoint acknowledges for dashboard
// compatibility.
func (h *SpreadsheetHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "sessions are fetched live; no sync required",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// infoFromBatch reduces a batch to table metadata. Nested turn/tool
// structures are not field names, so they are reported as single columns.
func infoFromBatch(batch extract.Batch) tableInfo {
	return tableInfo{
		Name:        "Sessions",
		RecordCount: batch.Count,
		Fields: []string{
			"sessionId", "customerId", "createdAt", "status",
			"escalationRecommended", "tags", "sentiment", "conversation", "tools",
		},
	}
}
