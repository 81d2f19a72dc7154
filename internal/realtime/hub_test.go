package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func receive(t *testing.T, c *Client) Message {
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "客户端已被关闭")
		var msg struct {
			Type      MessageType       `json:"type"`
			Timestamp time.Time         `json:"timestamp"`
			Payload   RoomStatusPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		return Message{Type: msg.Type, Timestamp: msg.Timestamp, Payload: msg.Payload}
	case <-time.After(time.Second):
		t.Fatal("未收到消息")
	}
	return Message{}
}

func TestHub_PublishRoomState(t *testing.T) {
	hub, _ := startHub(t)
	a, b := NewClient(), NewClient()
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	stay, err := daterange.New(daterange.MustParse("2025-03-01"), daterange.MustParse("2025-03-03"))
	require.NoError(t, err)
	occupied, err := models.StateOccupied(stay)
	require.NoError(t, err)

	hub.PublishRoomState(7, occupied)

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeRoomStatusChanged, msg.Type)
		payload := msg.Payload.(RoomStatusPayload)
		assert.Equal(t, int64(7), payload.RoomID)
		assert.Equal(t, models.RoomStatusOccupied, payload.Status)
		require.NotNil(t, payload.StatusFrom)
		assert.Equal(t, "2025-03-01", *payload.StatusFrom)
		assert.Equal(t, "2025-03-03", *payload.StatusTo)
	}
}

func TestNewRoomStatusPayload_NoWindow(t *testing.T) {
	p := NewRoomStatusPayload(3, models.StateDirty())
	assert.Equal(t, models.RoomStatusDirty, p.Status)
	assert.Nil(t, p.StatusFrom)
	assert.Nil(t, p.StatusTo)
}

func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient()
	require.True(t, hub.Register(c))
	hub.Unregister(c)

	_, ok := <-c.Send()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// 重复注销无副作用
	hub.Unregister(c)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := NewClient()
	require.True(t, hub.Register(slow))

	for i := 0; i <= clientBuffer; i++ {
		hub.Broadcast([]byte(`{}`))
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	hub, cancel := startHub(t)
	c := NewClient()
	require.True(t, hub.Register(c))

	cancel()
	<-hub.done

	_, ok := <-c.Send()
	assert.False(t, ok, "停止后关闭全部客户端")
	assert.False(t, hub.Register(NewClient()))
	hub.Unregister(c)
}
