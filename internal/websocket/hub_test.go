package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishOnNilHubIsSafe(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() {
		h.Publish([]byte("stock.updated"))
	})
}

// Publish never blocks the caller: once the queue is full, further
// messages are dropped instead of stalling the producing request.
func TestPublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast)+10; i++ {
		h.Publish([]byte("msg"))
	}
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}
