package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id, userID string, hub *Hub) *Client {
	return &Client{ID: id, UserID: userID, Hub: hub, Send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient("c1", "u1", hub)
	b := newTestClient("c2", "u2", hub)
	hub.Register <- a
	hub.Register <- b

	hub.PublishChange("reports", "UPDATE", map[string]string{"id": "RPT001"})

	for _, client := range []*Client{a, b} {
		var msg ChangeMessage
		require.NoError(t, json.Unmarshal(receive(t, client), &msg))
		assert.Equal(t, "reports", msg.Table)
		assert.Equal(t, "UPDATE", msg.EventType)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient("c1", "u1", hub)
	hub.Register <- c
	hub.Unregister <- c

	select {
	case _, open := <-c.Send:
		assert.False(t, open, "send channel must be closed on unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Zero(t, hub.ClientCount())
}

func TestHubBroadcastToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := newTestClient("c1", "u1", hub)
	other := newTestClient("c2", "u2", hub)
	hub.Register <- mine
	hub.Register <- other

	// Register sends are consumed by Run but the map update races with
	// BroadcastToUser, so wait for both to land.
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToUser("u1", []byte(`{"hello":"u1"}`))

	assert.Equal(t, []byte(`{"hello":"u1"}`), receive(t, mine))
	assert.Empty(t, other.Send)
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{ID: "c1", UserID: "u1", Hub: hub, Send: make(chan []byte)}
	hub.Register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Nobody reads slow.Send, so the broadcast path evicts it.
	hub.PublishChange("reports", "INSERT", nil)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
