package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, sessionID uuid.UUID) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	client := mockClient(hub, sessionID)

	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[sessionID] == nil {
		t.Fatal("session room not created")
	}
	if !hub.rooms[sessionID][client] {
		t.Fatal("client not registered in session room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	client := mockClient(hub, sessionID)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[sessionID] != nil {
		t.Fatal("session room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	session1 := uuid.New()
	session2 := uuid.New()

	client1 := mockClient(hub, session1)
	client2 := mockClient(hub, session2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast to session1 only
	testPayload := json.RawMessage(`{"orderNumber":"MF-0042"}`)
	event := Event{
		Type:    EventOrderCreated,
		Payload: testPayload,
	}
	hub.BroadcastToSession(session1, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != EventOrderCreated {
			t.Errorf("expected type %q, got %q", EventOrderCreated, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different session")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleTabsInSameSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	client1 := mockClient(hub, sessionID)
	client2 := mockClient(hub, sessionID)
	client3 := mockClient(hub, sessionID)

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"status":"approved"}`)
	event := Event{
		Type:    EventPaymentStatus,
		Payload: testPayload,
	}
	hub.BroadcastToSession(sessionID, event)

	// All three tabs should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventPaymentStatus {
				t.Errorf("client%d: expected type %q, got %q", i+1, EventPaymentStatus, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubMultipleSessionsIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	session1 := uuid.New()
	session2 := uuid.New()
	session3 := uuid.New()

	// Two tabs per session
	clients := map[uuid.UUID][]*Client{
		session1: {mockClient(hub, session1), mockClient(hub, session1)},
		session2: {mockClient(hub, session2), mockClient(hub, session2)},
		session3: {mockClient(hub, session3), mockClient(hub, session3)},
	}

	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	// Broadcast to session2 only
	event := Event{
		Type:    EventPaymentStatus,
		Payload: json.RawMessage(`{"sessionId":"` + session2.String() + `"}`),
	}
	hub.BroadcastToSession(session2, event)

	// Only session2 clients should receive
	for sessionID, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if sessionID != session2 {
					t.Fatalf("session %s client %d should not receive message", sessionID, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != EventPaymentStatus {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if sessionID == session2 {
					t.Fatalf("session2 client %d should have received message", i)
				}
				// Expected for other sessions
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionID := uuid.New()
	client1 := mockClient(hub, sessionID)
	client2 := mockClient(hub, sessionID)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[sessionID]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[sessionID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[sessionID]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[sessionID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[sessionID] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToNonExistentSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	session1 := uuid.New()
	client1 := mockClient(hub, session1)
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	// Broadcast to a session nobody joined
	event := Event{
		Type:    EventOrderCreated,
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.BroadcastToSession(uuid.New(), event)

	// client1 should NOT receive anything
	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different session")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}
