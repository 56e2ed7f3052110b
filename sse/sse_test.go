package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishFansOutPerUser(t *testing.T) {
	h := NewHub()
	a1 := h.Subscribe("alice")
	a2 := h.Subscribe("alice")
	b := h.Subscribe("bob")

	assert.Equal(t, 2, h.Publish("alice", "hello"))
	assert.Equal(t, "hello", <-a1.Messages)
	assert.Equal(t, "hello", <-a2.Messages)
	assert.Empty(t, b.Messages)

	assert.Equal(t, 0, h.Publish("carol", "nobody"))
}

func TestUnsubscribeClosesDone(t *testing.T) {
	h := NewHub()
	cs := h.Subscribe("alice")
	h.Unsubscribe("alice", cs)

	_, open := <-cs.Done
	assert.False(t, open)
	assert.Equal(t, 0, h.Count("alice"))
	assert.Equal(t, 0, h.Publish("alice", "late"))

	// second unsubscribe is a no-op
	h.Unsubscribe("alice", cs)
}

func TestFullBufferDropsMessage(t *testing.T) {
	h := NewHub()
	cs := h.Subscribe("alice")
	for i := 0; i < streamBuffer; i++ {
		assert.Equal(t, 1, h.Publish("alice", "x"))
	}
	assert.Equal(t, 0, h.Publish("alice", "overflow"))
	assert.Len(t, cs.Messages, streamBuffer)
}
