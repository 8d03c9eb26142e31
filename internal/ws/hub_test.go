package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func mustReceiveMessage(t *testing.T, ch <-chan []byte, timeout time.Duration) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for websocket payload")
		return nil
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clientA := NewClient(hub, nil)
	clientB := NewClient(hub, nil)
	hub.Register(clientA)
	hub.Register(clientB)

	t.Cleanup(func() {
		hub.Unregister(clientA)
		hub.Unregister(clientB)
	})

	time.Sleep(25 * time.Millisecond)

	hub.Broadcast([]byte("refresh"))
	for _, client := range []*Client{clientA, clientB} {
		received := mustReceiveMessage(t, client.Send, 200*time.Millisecond)
		if string(received) != "refresh" {
			t.Fatalf("expected refresh payload, got %q", string(received))
		}
	}
}

func TestHubBroadcastRefreshPayload(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil)
	hub.Register(client)
	t.Cleanup(func() { hub.Unregister(client) })

	time.Sleep(25 * time.Millisecond)

	hub.BroadcastRefresh("sess_1", "webhook")

	payload := mustReceiveMessage(t, client.Send, 200*time.Millisecond)
	var event RefreshEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if event.Event != EventSessionsRefreshed {
		t.Fatalf("expected %s, got %s", EventSessionsRefreshed, event.Event)
	}
	if event.SessionID != "sess_1" || event.Source != "webhook" {
		t.Fatalf("unexpected event fields: %+v", event)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := NewClient(hub, nil)
	slow.Send = make(chan []byte) // unbuffered and never drained
	hub.Register(slow)

	time.Sleep(25 * time.Millisecond)

	hub.Broadcast([]byte("first"))

	// The hub closes the send channel when it cannot deliver.
	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Fatal("expected closed channel for dropped client")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for client drop")
	}
}
