package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterAndOnline(t *testing.T) {
	h := NewHub()

	assert.False(t, h.IsOnline("ada"))

	client, err := h.Register("ada", nil)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "ada", client.UserID)
	assert.True(t, h.IsOnline("ada"))

	h.UnregisterClient(client)
	assert.False(t, h.IsOnline("ada"))
}

func TestHubPerUserConnectionLimit(t *testing.T) {
	h := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register("ada", nil)
		require.NoError(t, err)
	}

	_, err := h.Register("ada", nil)
	assert.Error(t, err)

	// Other users are unaffected by one user's saturation.
	_, err = h.Register("lin", nil)
	assert.NoError(t, err)
}

func TestHubUnregisterRunsTeardownsOnce(t *testing.T) {
	h := NewHub()

	client, err := h.Register("ada", nil)
	require.NoError(t, err)

	calls := 0
	h.AddTeardown(client, func() { calls++ })
	h.AddTeardown(client, func() { calls++ })

	h.UnregisterClient(client)
	assert.Equal(t, 2, calls)

	h.UnregisterClient(client)
	assert.Equal(t, 2, calls, "teardowns run exactly once")
}

func TestHubBroadcastReachesAllUserConnections(t *testing.T) {
	h := NewHub()

	first, err := h.Register("ada", nil)
	require.NoError(t, err)
	second, err := h.Register("ada", nil)
	require.NoError(t, err)
	other, err := h.Register("lin", nil)
	require.NoError(t, err)

	h.Broadcast("ada", []byte(`{"type":"ping"}`))

	assert.Len(t, first.Send, 1)
	assert.Len(t, second.Send, 1)
	assert.Len(t, other.Send, 0)
}

func TestHubBroadcastAll(t *testing.T) {
	h := NewHub()

	ada, err := h.Register("ada", nil)
	require.NoError(t, err)
	lin, err := h.Register("lin", nil)
	require.NoError(t, err)

	h.BroadcastAll([]byte(`{"type":"system"}`))

	assert.Len(t, ada.Send, 1)
	assert.Len(t, lin.Send, 1)
}

func TestHubShutdownRunsTeardowns(t *testing.T) {
	h := NewHub()

	client, err := h.Register("ada", nil)
	require.NoError(t, err)

	unsubscribed := false
	h.AddTeardown(client, func() { unsubscribed = true })

	require.NoError(t, h.Shutdown(context.Background()))
	assert.True(t, unsubscribed)
	assert.False(t, h.IsOnline("ada"))
}

func TestClientTrySendDropsWhenBufferFull(t *testing.T) {
	h := NewHub()

	client, err := h.Register("ada", nil)
	require.NoError(t, err)

	payload := []byte(`{"topic":"posts","payload":[]}`)
	for i := 0; i < cap(client.Send); i++ {
		client.TrySend(payload)
	}
	require.Len(t, client.Send, cap(client.Send))

	// One more must not block the caller or grow the buffer.
	done := make(chan struct{})
	go func() {
		client.TrySend(payload)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TrySend blocked on a full buffer")
	}
	assert.Len(t, client.Send, cap(client.Send))
}

func TestClientTrySendSurvivesClosedChannel(t *testing.T) {
	h := NewHub()

	client, err := h.Register("ada", nil)
	require.NoError(t, err)
	close(client.Send)

	assert.NotPanics(t, func() { client.TrySend([]byte(`{}`)) })
}
