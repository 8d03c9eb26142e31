package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/shorelinehq/shoreline/internal/api"
	"github.com/shorelinehq/shoreline/internal/assistant"
	"github.com/shorelinehq/shoreline/internal/automigrate"
	"github.com/shorelinehq/shoreline/internal/config"
	"github.com/shorelinehq/shoreline/internal/extract"
	"github.com/shorelinehq/shoreline/internal/store"
	"github.com/shorelinehq/shoreline/internal/webhook"
	"github.com/shorelinehq/shoreline/internal/ws"
)

func main() {
	cfg := config.Load()

	var sessions webhook.SessionWriter
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("ping database: %v", err)
		}
		if err := automigrate.Run(db, "migrations"); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		sessions = store.NewSessionStore(db)
	} else {
		log.Printf("DATABASE_URL not set; webhook storage disabled")
	}

	hub := ws.NewHub()
	go hub.Run()

	pipeline := extract.NewPipeline(
		extract.WithPipelineBaseURL(cfg.SheetBaseURL),
		extract.WithPipelineHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
	)

	chat := &api.ChatHandler{}
	if cfg.AnthropicAPIKey != "" {
		client, err := assistant.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL, &http.Client{Timeout: 60 * time.Second})
		if err != nil {
			log.Fatalf("configure assistant: %v", err)
		}
		chat.Client = client
	} else {
		log.Printf("ANTHROPIC_API_KEY not set; chat disabled")
	}

	router := api.NewRouter(api.Deps{
		Pipeline: pipeline,
		Sessions: webhook.NewSessionHandler(sessions, hub),
		Chat:     chat,
		Hub:      hub,
	})

	log.Printf("shoreline listening on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
