package handlers

import (
	"net/http"
	"time"

	"finzora/api/logger"
	"finzora/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by CORS and the token
	},
}

// HandleNotificationSocket is the WebSocket twin of the SSE stream. Incoming
// frames are ignored; they only keep the connection alive.
func (h *Handler) HandleNotificationSocket(c *gin.Context) {
	if h.Hub == nil {
		respondError(c, http.StatusServiceUnavailable, "Live notifications are not enabled")
		return
	}
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	clientStream := h.Hub.Subscribe(userID)
	logger.Get().Info("WebSocket connection established",
		zap.String("user_id", userID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	go monitorConnection(userID, conn, func() { h.Hub.Unsubscribe(userID, clientStream) })

	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-clientStream.Messages:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				logger.Get().Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
				h.Hub.Unsubscribe(userID, clientStream)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Hub.Unsubscribe(userID, clientStream)
				return
			}
		case <-clientStream.Done:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// monitorConnection reads until the client disconnects or goes quiet, then
// calls closed.
func monitorConnection(userID string, conn *websocket.Conn, closed func()) {
	defer func() {
		closed()
		logger.Get().Info("Connection closed", zap.String("user_id", userID))
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Warn("WebSocket error", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}
