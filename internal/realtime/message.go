package realtime

import (
	"encoding/json"
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// MessageType 推送消息类型
type MessageType string

const (
	TypeRoomStatusChanged MessageType = "room.status_changed"
)

// Message 推送消息信封
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage 创建消息，时间戳取当前 UTC 时间
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON 序列化消息
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// RoomStatusPayload room.status_changed 的载荷，窗口日期格式为 YYYY-MM-DD
type RoomStatusPayload struct {
	RoomID     int64             `json:"room_id"`
	Status     models.RoomStatus `json:"status"`
	StatusFrom *string           `json:"status_from,omitempty"`
	StatusTo   *string           `json:"status_to,omitempty"`
}

// NewRoomStatusPayload 由房间状态生成载荷
func NewRoomStatusPayload(roomID int64, st models.RoomState) RoomStatusPayload {
	p := RoomStatusPayload{RoomID: roomID, Status: st.Status()}
	if w, ok := st.Window(); ok {
		from, to := w.From.Format(time.DateOnly), w.To.Format(time.DateOnly)
		p.StatusFrom, p.StatusTo = &from, &to
	}
	return p
}
