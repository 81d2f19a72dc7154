package hotel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

func TestAvailabilityResolver_IsAvailable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
	require.NoError(t, err)
	_, err = env.reservations.Create(ctx, reservationReq("101", "2025-03-10", "2025-03-12", 2))
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to string
		want     bool
	}{
		{"与在住记录重叠", "2025-03-02", "2025-03-04", false},
		{"在住退房日当天入住", "2025-03-03", "2025-03-05", true},
		{"与预订重叠", "2025-03-11", "2025-03-13", false},
		{"预订离店日当天入住", "2025-03-12", "2025-03-14", true},
		{"完全空闲", "2025-03-05", "2025-03-08", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := env.rooms.IsAvailable(ctx, room.ID, date(tt.from), date(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	t.Run("日期区间无效", func(t *testing.T) {
		_, err := env.rooms.IsAvailable(ctx, room.ID, date("2025-03-05"), date("2025-03-05"))
		assert.ErrorIs(t, err, errors.ErrDateRangeInvalid)
	})

	t.Run("房间不存在", func(t *testing.T) {
		_, err := env.rooms.IsAvailable(ctx, 999, date("2025-03-05"), date("2025-03-06"))
		assert.ErrorIs(t, err, errors.ErrRoomNotFound)
	})
}

func TestAvailabilityResolver_RoomStatus(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	maintenance, err := models.StateMaintenance(daterange.Range{From: date("2025-03-05"), To: date("2025-03-07")})
	require.NoError(t, err)

	tests := []struct {
		name     string
		state    models.RoomState
		from, to string
		want     bool
	}{
		{"可用", models.StateAvailable(), "2025-03-01", "2025-03-02", true},
		{"维修窗口内", maintenance, "2025-03-06", "2025-03-08", false},
		{"维修窗口外", maintenance, "2025-03-07", "2025-03-09", true},
		{"待清洁总是阻塞", models.StateDirty(), "2025-04-01", "2025-04-02", false},
		{"管理用房总是阻塞", models.StateManagement(), "2025-04-01", "2025-04-02", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, env.rooms.SetStatus(ctx, room.ID, tt.state))
			ok, err := env.rooms.IsAvailable(ctx, room.ID, date(tt.from), date(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAvailabilityResolver_ExcludeReservation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createRoom(t, "101")

	reservation, err := env.reservations.Create(ctx, reservationReq("101", "2025-03-10", "2025-03-12", 1))
	require.NoError(t, err)

	stay := daterange.Range{From: date("2025-03-10"), To: date("2025-03-12")}
	err = env.db.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		require.NoError(t, tx.First(&room, reservation.RoomID).Error)

		ok, err := env.resolver.Check(ctx, tx, &room, stay, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = env.resolver.Check(ctx, tx, &room, stay, reservation.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestAvailabilityResolver_ReleasedBookings(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	t.Run("取消的预订不再占用", func(t *testing.T) {
		reservation, err := env.reservations.Create(ctx, reservationReq("101", "2025-03-10", "2025-03-12", 1))
		require.NoError(t, err)
		_, err = env.reservations.Cancel(ctx, reservation.ID)
		require.NoError(t, err)

		ok, err := env.rooms.IsAvailable(ctx, room.ID, date("2025-03-10"), date("2025-03-12"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("未到店的预订不再占用", func(t *testing.T) {
		reservation, err := env.reservations.Create(ctx, reservationReq("101", "2025-03-20", "2025-03-22", 1))
		require.NoError(t, err)
		status := models.ReservationStatusNoShow
		_, err = env.reservations.Update(ctx, reservation.ID, &UpdateReservationRequest{Status: &status})
		require.NoError(t, err)

		ok, err := env.rooms.IsAvailable(ctx, room.ID, date("2025-03-20"), date("2025-03-22"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("退房后记录不再占用但房间待清洁", func(t *testing.T) {
		checkIn, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
		require.NoError(t, err)
		_, err = env.checkIns.CheckOut(ctx, checkIn.ID)
		require.NoError(t, err)

		ok, err := env.rooms.IsAvailable(ctx, room.ID, date("2025-03-01"), date("2025-03-03"))
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, env.rooms.SetStatus(ctx, room.ID, models.StateAvailable()))
		ok, err = env.rooms.IsAvailable(ctx, room.ID, date("2025-03-01"), date("2025-03-03"))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAvailabilityResolver_ListAvailableRooms(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createRoom(t, "103")
	env.createRoom(t, "101")
	dirty := env.createRoom(t, "102")
	env.createRoom(t, "104")

	require.NoError(t, env.rooms.SetStatus(ctx, dirty.ID, models.StateDirty()))
	_, err := env.reservations.Create(ctx, reservationReq("104", "2025-03-05", "2025-03-06", 1))
	require.NoError(t, err)

	rooms, err := env.rooms.ListAvailable(ctx, date("2025-03-05"), date("2025-03-07"))
	require.NoError(t, err)

	var numbers []string
	for _, r := range rooms {
		numbers = append(numbers, r.RoomNo)
	}
	assert.Equal(t, []string{"101", "103"}, numbers)

	_, err = env.rooms.ListAvailable(ctx, date("2025-03-07"), date("2025-03-05"))
	assert.ErrorIs(t, err, errors.ErrDateRangeInvalid)
}
