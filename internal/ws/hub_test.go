package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, TopicOrders)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[TopicOrders] == nil {
		t.Fatal("topic room not created")
	}
	if !hub.rooms[TopicOrders][client] {
		t.Fatal("client not registered in topic room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, TopicOrders)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[TopicOrders] != nil {
		t.Fatal("topic room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	ordersClient := mockClient(hub, TopicOrders)
	kitchenClient := mockClient(hub, TopicKitchen)

	// Register both clients
	hub.register <- ordersClient
	hub.register <- kitchenClient
	time.Sleep(10 * time.Millisecond)

	// Broadcast to the orders topic only
	testPayload := json.RawMessage(`{"id":123,"number":"SHG-123"}`)
	event := Event{
		Type:    "order.created",
		Payload: testPayload,
	}
	hub.Broadcast(TopicOrders, event)

	// The orders client receives the message
	select {
	case msg := <-ordersClient.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("orders client did not receive message")
	}

	// The kitchen client does NOT receive the message
	select {
	case <-kitchenClient.send:
		t.Fatal("kitchen client should not have received an orders-topic message")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, TopicKitchen)
	client2 := mockClient(hub, TopicKitchen)
	client3 := mockClient(hub, TopicKitchen)

	// Register all clients to the same topic
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"status":"READY"}`)
	event := Event{
		Type:    "order.status_changed",
		Payload: testPayload,
	}
	hub.Broadcast(TopicKitchen, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.status_changed" {
				t.Errorf("client%d: expected type 'order.status_changed', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, TopicOrders)
	client2 := mockClient(hub, TopicOrders)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[TopicOrders]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[TopicOrders]))
	}
	hub.mu.RUnlock()

	// Unregister first client
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[TopicOrders]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[TopicOrders]))
	}
	hub.mu.RUnlock()

	// Unregister second client
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[TopicOrders] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToEmptyTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Only an orders client is connected
	client := mockClient(hub, TopicOrders)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Broadcast to the kitchen topic, which has no subscribers
	event := Event{
		Type:    "order.created",
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.Broadcast(TopicKitchen, event)

	// The orders client should NOT receive anything
	select {
	case <-client.send:
		t.Fatal("client should not receive a message for a different topic")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestTopicAccess(t *testing.T) {
	cases := []struct {
		role  string
		topic string
		want  bool
	}{
		{"ADMIN", TopicOrders, true},
		{"ADMIN", TopicKitchen, true},
		{"CASHIER", TopicOrders, true},
		{"CASHIER", TopicKitchen, false},
		{"CHEF", TopicKitchen, true},
		{"CHEF", TopicOrders, false},
		{"", TopicOrders, false},
	}

	for _, tc := range cases {
		if got := canSubscribe(tc.role, tc.topic); got != tc.want {
			t.Errorf("canSubscribe(%q, %q) = %v, want %v", tc.role, tc.topic, got, tc.want)
		}
	}
}
