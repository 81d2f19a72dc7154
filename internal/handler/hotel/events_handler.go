package hotel

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RoomEvents 订阅房态变更
// @Summary 订阅房态变更（WebSocket）
// @Tags 房间
// @Success 101
// @Router /api/v1/rooms/events [get]
func (h *Handler) RoomEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket 升级失败", logger.Module("realtime"), zap.Error(err))
		return
	}

	client := realtime.NewClient()
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	go writePump(conn, client)
	go readPump(conn, client, h.hub)
}

// writePump 将 Hub 消息写入连接并定时 ping
func writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理控制帧，连接断开时注销客户端
func readPump(conn *websocket.Conn, client *realtime.Client, hub *realtime.Hub) {
	defer func() {
		hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("房态订阅异常断开", logger.Module("realtime"), zap.Error(err))
			}
			return
		}
	}
}
