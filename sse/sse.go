// Package sse fans alert notifications out to a user's open live streams.
package sse

import (
	"sync"

	"finzora/api/logger"

	"go.uber.org/zap"
)

const streamBuffer = 100

type ClientStream struct {
	Messages chan string
	Done     chan struct{}
}

// Hub tracks every open stream per user. A user may have several tabs or
// devices connected at once.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[*ClientStream]struct{}
}

func NewHub() *Hub {
	return &Hub{streams: make(map[string]map[*ClientStream]struct{})}
}

func (h *Hub) Subscribe(userID string) *ClientStream {
	cs := &ClientStream{
		Messages: make(chan string, streamBuffer),
		Done:     make(chan struct{}),
	}
	h.mu.Lock()
	if h.streams[userID] == nil {
		h.streams[userID] = make(map[*ClientStream]struct{})
	}
	h.streams[userID][cs] = struct{}{}
	h.mu.Unlock()

	logger.Get().Debug("stream subscribed", zap.String("user_id", userID))
	return cs
}

func (h *Hub) Unsubscribe(userID string, cs *ClientStream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.streams[userID]
	if !ok {
		return
	}
	if _, ok := set[cs]; !ok {
		return
	}
	delete(set, cs)
	close(cs.Done)
	if len(set) == 0 {
		delete(h.streams, userID)
	}
	logger.Get().Debug("stream unsubscribed", zap.String("user_id", userID))
}

// Publish delivers payload to every stream of userID and returns how many
// accepted it. Streams with a full buffer miss the message.
func (h *Hub) Publish(userID, payload string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for cs := range h.streams[userID] {
		select {
		case cs.Messages <- payload:
			delivered++
		default:
			logger.Get().Warn("stream buffer full, dropping message", zap.String("user_id", userID))
		}
	}
	if delivered == 0 {
		logger.Get().Debug("no client stream found", zap.String("user_id", userID))
	}
	return delivered
}

func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[userID])
}
