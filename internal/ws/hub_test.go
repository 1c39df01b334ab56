package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, room string) *Client {
	return &Client{
		hub:  hub,
		room: room,
		send: make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "menu")

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.RoomSize("menu") != 1 {
		t.Fatalf("room size: got %d, want 1", hub.RoomSize("menu"))
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["menu"] != nil {
		t.Fatal("room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleRoom(t *testing.T) {
	hub := startHub(t)

	device1 := mockClient(hub, "device:dev-1")
	device2 := mockClient(hub, "device:dev-2")
	hub.register <- device1
	hub.register <- device2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"count":3}`)
	hub.Broadcast("device:dev-1", Event{Type: "cart.updated", Payload: testPayload})

	select {
	case msg := <-device1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "cart.updated" {
			t.Errorf("expected type 'cart.updated', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("device1 did not receive message")
	}

	select {
	case <-device2.send:
		t.Fatal("device2 should not receive another device's cart")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishToMultipleClients(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{mockClient(hub, "menu"), mockClient(hub, "menu"), mockClient(hub, "menu")}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Publish("menu", "menu.updated", map[string]any{"category": "mains", "items": []string{}})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received struct {
				Type    string `json:"type"`
				Payload struct {
					Category string `json:"category"`
				} `json:"payload"`
			}
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "menu.updated" || received.Payload.Category != "mains" {
				t.Errorf("client%d: got %+v", i+1, received)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestPublishUnmarshalablePayloadIsDropped(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "admin")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Publish("admin", "order.created", make(chan int))

	select {
	case <-client.send:
		t.Fatal("unexpected message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastDoesNotBlockWithoutRun(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish("menu", "menu.updated", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with a full queue")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() { hub.Run(ctx); close(stopped) }()

	client := mockClient(hub, "menu")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	<-stopped

	if _, ok := <-client.send; ok {
		t.Fatal("client send channel should be closed")
	}
}
