// Package realtime 通过 WebSocket 向客户端推送房态变更
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Hub 维护在线客户端并广播消息
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// Client 单个订阅连接
type Client struct {
	send chan []byte
}

// NewClient 创建客户端
func NewClient() *Client {
	return &Client{send: make(chan []byte, clientBuffer)}
}

// Send 待发送消息，Hub 移除客户端时关闭
func (c *Client) Send() <-chan []byte {
	return c.send
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 事件循环，ctx 结束时关闭全部客户端
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("房态订阅已连接", logger.Module("realtime"), zap.Int("clients", n))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 发送缓冲已满，断开慢客户端
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Register 加入客户端，Hub 已停止时返回 false
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 移除客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount 在线客户端数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 广播原始消息，队列满时丢弃
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("房态推送队列已满，丢弃消息", logger.Module("realtime"))
	}
}

// PublishRoomState 广播房间状态变更
func (h *Hub) PublishRoomState(roomID int64, st models.RoomState) {
	data, err := NewMessage(TypeRoomStatusChanged, NewRoomStatusPayload(roomID, st)).JSON()
	if err != nil {
		logger.Error("房态消息编码失败", logger.Module("realtime"), logger.RoomID(roomID), zap.Error(err))
		return
	}
	h.Broadcast(data)
}
