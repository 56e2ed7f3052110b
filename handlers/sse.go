package handlers

import (
	"io"
	"net/http"

	"finzora/api/logger"
	"finzora/api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleNotificationStream pushes alert notifications to the caller as
// server-sent events until the client goes away.
func (h *Handler) HandleNotificationStream(c *gin.Context) {
	if h.Hub == nil {
		respondError(c, http.StatusServiceUnavailable, "Live notifications are not enabled")
		return
	}
	userID := middleware.UserID(c)

	clientStream := h.Hub.Subscribe(userID)
	logger.Get().Info("SSE connection established", zap.String("user_id", userID))

	// Automatically remove connection when client disconnects
	defer func() {
		h.Hub.Unsubscribe(userID, clientStream)
		logger.Get().Info("SSE connection closed", zap.String("user_id", userID))
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg := <-clientStream.Messages:
			c.SSEvent("alert", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		case <-clientStream.Done:
			return false
		}
	})
}

func (h *Handler) HandleNotificationMetrics(c *gin.Context) {
	if h.Pool == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": true, "data": h.Pool.Metrics()})
}
