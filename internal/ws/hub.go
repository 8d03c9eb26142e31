// Package ws pushes refresh notifications to connected dashboard clients.
package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// EventSessionsRefreshed tells dashboards to re-fetch session data.
const EventSessionsRefreshed = "sessions.refreshed"

// RefreshEvent is the payload broadcast after new session data arrives.
type RefreshEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Hub manages active clients and broadcasts.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub builds a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Broadcast sends a payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.broadcast <- payload
}

// BroadcastRefresh sends a sessions.refreshed event.
func (h *Hub) BroadcastRefresh(sessionID, source string) {
	payload, err := json.Marshal(RefreshEvent{
		Event:     EventSessionsRefreshed,
		SessionID: sessionID,
		Source:    source,
	})
	if err != nil {
		return
	}
	h.Broadcast(payload)
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Client represents a websocket connection.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// NewClient returns a client ready for registration.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}
