// Package api wires the HTTP surface: extraction endpoints, chat proxy,
// webhook ingestion, and the websocket feed.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shorelinehq/shoreline/internal/extract"
	"github.com/shorelinehq/shoreline/internal/webhook"
	"github.com/shorelinehq/shoreline/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Deps carries the collaborators the router mounts. Sessions and Chat
// may be nil when their backing services are not configured.
type Deps struct {
	Pipeline *extract.Pipeline
	Sessions *webhook.SessionHandler
	Chat     *ChatHandler
	Hub      *ws.Hub
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot)

	spreadsheet := &SpreadsheetHandler{Pipeline: deps.Pipeline}
	r.Post("/api/spreadsheet/sessions", spreadsheet.Sessions)
	r.Post("/api/spreadsheet/test", spreadsheet.Test)
	r.Post("/api/spreadsheet/info", spreadsheet.Info)
	r.Post("/api/spreadsheet/debug", spreadsheet.Debug)
	r.Post("/api/spreadsheet/sync", spreadsheet.Sync)

	chat := deps.Chat
	if chat == nil {
		chat = &ChatHandler{}
	}
	r.Post("/api/chat", chat.Handle)

	if deps.Sessions != nil {
		r.Post("/api/webhook/session", deps.Sessions.Receive)
		r.Get("/api/webhook/sessions", deps.Sessions.List)
	}

	if deps.Hub != nil {
		r.Handle("/ws", &ws.Handler{Hub: deps.Hub})
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "Shoreline",
		"tagline": "Session dashboard backend for customer support teams",
		"health":  "/health",
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
