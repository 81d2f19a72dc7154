package hotel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

func TestCheckInService_Create(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	t.Run("成功办理入住", func(t *testing.T) {
		req := checkInReq("101", "2025-03-01", "2025-03-03", "张三", "李四")
		req.Remarks = ptr("靠窗")
		checkIn, err := env.checkIns.Create(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, models.CheckInStatusActive, checkIn.Status)
		assert.Equal(t, 2, checkIn.Pax)
		require.NotNil(t, checkIn.ActualCheckInAt)
		require.Len(t, checkIn.Guests, 2)
		assert.Equal(t, 1, checkIn.Guests[0].GuestNumber)
		assert.Equal(t, "李四", checkIn.Guests[1].GuestName)
		assert.Equal(t, 2, checkIn.Guests[1].GuestNumber)

		reloaded := env.reloadRoom(t, room.ID)
		assert.Equal(t, models.RoomStatusOccupied, reloaded.Status)
		w, ok := reloaded.State().Window()
		require.True(t, ok)
		assert.True(t, w.From.Equal(date("2025-03-01")))
		assert.True(t, w.To.Equal(date("2025-03-03")))
	})

	t.Run("重叠入住被拒绝且房间状态不变", func(t *testing.T) {
		before := env.reloadRoom(t, room.ID)
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-02", "2025-03-04", "王五"))
		assert.ErrorIs(t, err, errors.ErrRoomNotAvailable)

		after := env.reloadRoom(t, room.ID)
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.StatusFrom, after.StatusFrom)
		assert.Equal(t, before.StatusTo, after.StatusTo)

		_, total, err := env.checkIns.List(ctx, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("离店日期不晚于入住日期", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-05", "2025-03-05", "张三"))
		assert.ErrorIs(t, err, errors.ErrDateRangeInvalid)
	})

	t.Run("人数超过上限", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-05", "2025-03-06", "甲", "乙", "丙", "丁"))
		assert.ErrorIs(t, err, errors.ErrGuestCountInvalid)
	})

	t.Run("没有客人", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-05", "2025-03-06"))
		assert.ErrorIs(t, err, errors.ErrGuestCountInvalid)
	})

	t.Run("客人姓名为空", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-05", "2025-03-06", "张三", " "))
		assert.ErrorIs(t, err, errors.ErrGuestNameRequired)
	})

	t.Run("房间不存在", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("999", "2025-03-05", "2025-03-06", "张三"))
		assert.ErrorIs(t, err, errors.ErrRoomNotFound)
	})
}

func TestCheckInService_Create_RollsBackOnGuestFailure(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	err := env.db.Callback().Create().Before("gorm:create").Register("test:fail_guests", func(db *gorm.DB) {
		if db.Statement.Table == "guests" {
			_ = db.AddError(fmt.Errorf("写入客人失败"))
		}
	})
	require.NoError(t, err)

	_, err = env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
	require.Error(t, err)
	assert.Equal(t, errors.KindInternal, errors.KindOf(err))

	var checkIns, guests int64
	require.NoError(t, env.db.Model(&models.CheckIn{}).Count(&checkIns).Error)
	require.NoError(t, env.db.Model(&models.Guest{}).Count(&guests).Error)
	assert.Zero(t, checkIns)
	assert.Zero(t, guests)
	assert.Equal(t, models.RoomStatusAvailable, env.reloadRoom(t, room.ID).Status)
}

func TestCheckInService_CreateWithReservation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createRoom(t, "101")
	env.createRoom(t, "102")

	reservation, err := env.reservations.Create(ctx, reservationReq("101", "2025-03-01", "2025-03-03", 2))
	require.NoError(t, err)

	t.Run("预订房间不一致", func(t *testing.T) {
		req := checkInReq("102", "2025-03-01", "2025-03-03", "张三")
		req.ReservationID = &reservation.ID
		_, err := env.checkIns.Create(ctx, req)
		assert.ErrorIs(t, err, errors.ErrCheckInRoomInvalid)
	})

	t.Run("预订不存在", func(t *testing.T) {
		req := checkInReq("101", "2025-03-01", "2025-03-03", "张三")
		req.ReservationID = ptr(int64(999))
		_, err := env.checkIns.Create(ctx, req)
		assert.ErrorIs(t, err, errors.ErrReservationNotFound)
	})

	t.Run("不带预订时被预订占用", func(t *testing.T) {
		_, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
		assert.ErrorIs(t, err, errors.ErrRoomNotAvailable)
	})

	t.Run("履行预订", func(t *testing.T) {
		req := checkInReq("101", "2025-03-01", "2025-03-03", "张三", "李四")
		req.ReservationID = &reservation.ID
		checkIn, err := env.checkIns.Create(ctx, req)
		require.NoError(t, err)

		linked, err := env.reservations.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationStatusCheckedIn, linked.Status)
		require.NotNil(t, linked.CheckInID)
		assert.Equal(t, checkIn.ID, *linked.CheckInID)
	})

	t.Run("已入住的预订不能再次履行", func(t *testing.T) {
		req := checkInReq("101", "2025-03-05", "2025-03-06", "张三")
		req.ReservationID = &reservation.ID
		_, err := env.checkIns.Create(ctx, req)
		assert.ErrorIs(t, err, errors.ErrReservationStatusError)
	})
}

func TestCheckInService_CheckOut(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	checkIn, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
	require.NoError(t, err)

	t.Run("首次退房", func(t *testing.T) {
		env.clock.Set(date("2025-03-03").Add(11 * time.Hour))
		out, err := env.checkIns.CheckOut(ctx, checkIn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CheckInStatusCheckedOut, out.Status)
		require.NotNil(t, out.ActualCheckOutAt)
		assert.Equal(t, 11, out.ActualCheckOutAt.UTC().Hour())
		assert.Equal(t, models.RoomStatusDirty, env.reloadRoom(t, room.ID).Status)
	})

	t.Run("重复退房", func(t *testing.T) {
		_, err := env.checkIns.CheckOut(ctx, checkIn.ID)
		assert.ErrorIs(t, err, errors.ErrCheckInNotActive)
	})

	t.Run("入住记录不存在", func(t *testing.T) {
		_, err := env.checkIns.CheckOut(ctx, 999)
		assert.ErrorIs(t, err, errors.ErrCheckInNotFound)
	})
}

func TestCheckInService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	reservation, err := env.reservations.Create(ctx, reservationReq("101", "2025-03-01", "2025-03-02", 1))
	require.NoError(t, err)
	req := checkInReq("101", "2025-03-01", "2025-03-02", "张三", "李四")
	req.ReservationID = &reservation.ID
	checkIn, err := env.checkIns.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, env.checkIns.Delete(ctx, checkIn.ID))

	_, err = env.checkIns.GetByID(ctx, checkIn.ID)
	assert.ErrorIs(t, err, errors.ErrCheckInNotFound)

	var guests int64
	require.NoError(t, env.db.Model(&models.Guest{}).Where("check_in_id = ?", checkIn.ID).Count(&guests).Error)
	assert.Zero(t, guests)

	assert.Equal(t, models.RoomStatusAvailable, env.reloadRoom(t, room.ID).Status)

	unlinked, err := env.reservations.GetByID(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Nil(t, unlinked.CheckInID)

	assert.ErrorIs(t, env.checkIns.Delete(ctx, checkIn.ID), errors.ErrCheckInNotFound)
}

func TestCheckInService_Reads(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createRoom(t, "101")
	env.createRoom(t, "102")

	first, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-02", "张三", "李四"))
	require.NoError(t, err)
	second, err := env.checkIns.Create(ctx, checkInReq("102", "2025-03-01", "2025-03-04", "王五"))
	require.NoError(t, err)
	_, err = env.checkIns.CheckOut(ctx, second.ID)
	require.NoError(t, err)

	t.Run("在住列表", func(t *testing.T) {
		active, err := env.checkIns.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, first.ID, active[0].ID)
	})

	t.Run("客人列表", func(t *testing.T) {
		guests, err := env.checkIns.ListGuests(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, guests, 2)
		assert.Equal(t, "张三", guests[0].GuestName)

		guest, err := env.checkIns.GetGuest(ctx, guests[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "李四", guest.GuestName)
	})

	t.Run("客人不存在", func(t *testing.T) {
		_, err := env.checkIns.GetGuest(ctx, 999)
		assert.ErrorIs(t, err, errors.ErrGuestNotFound)

		_, err = env.checkIns.ListGuests(ctx, 999)
		assert.ErrorIs(t, err, errors.ErrCheckInNotFound)
	})

	t.Run("按状态过滤", func(t *testing.T) {
		list, total, err := env.checkIns.List(ctx, 0, 10, map[string]interface{}{"status": models.CheckInStatusCheckedOut})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)
	})
}

func TestCheckInService_PublishesRoomState(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	checkIn, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
	require.NoError(t, err)

	_, err = env.checkIns.Create(ctx, checkInReq("101", "2025-03-02", "2025-03-04", "李四"))
	require.ErrorIs(t, err, errors.ErrRoomNotAvailable)

	_, err = env.checkIns.CheckOut(ctx, checkIn.ID)
	require.NoError(t, err)

	// 已退房的记录删除时不改变房态
	require.NoError(t, env.checkIns.Delete(ctx, checkIn.ID))

	// 清洁完成
	require.NoError(t, env.rooms.SetStatus(ctx, room.ID, models.StateAvailable()))

	active, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-02", "王五"))
	require.NoError(t, err)
	require.NoError(t, env.checkIns.Delete(ctx, active.ID))

	events := env.published.all()
	require.Len(t, events, 5)
	want := []models.RoomStatus{
		models.RoomStatusOccupied,
		models.RoomStatusDirty,
		models.RoomStatusAvailable,
		models.RoomStatusOccupied,
		models.RoomStatusAvailable,
	}
	for i, ev := range events {
		assert.Equal(t, room.ID, ev.roomID)
		assert.Equal(t, want[i], ev.state.Status(), "第 %d 条通知", i+1)
	}
	w, ok := events[0].state.Window()
	require.True(t, ok)
	assert.True(t, w.To.Equal(date("2025-03-03")))
}

func TestCheckInService_NotifiesBeforeUnlock(t *testing.T) {
	env := setupTestEnv(t)
	env.published.lockCheck = env.locker
	ctx := context.Background()
	room := env.createRoom(t, "101")

	checkIn, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-01", "2025-03-03", "张三"))
	require.NoError(t, err)
	_, err = env.checkIns.CheckOut(ctx, checkIn.ID)
	require.NoError(t, err)
	require.NoError(t, env.rooms.SetStatus(ctx, room.ID, models.StateAvailable()))
	active, err := env.checkIns.Create(ctx, checkInReq("101", "2025-03-05", "2025-03-06", "李四"))
	require.NoError(t, err)
	require.NoError(t, env.checkIns.Delete(ctx, active.ID))

	events := env.published.all()
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.True(t, ev.underLock, "第 %d 条通知应在释放房间锁前发出", i+1)
	}

	// 通知结束后锁已释放
	unlock, err := env.locker.Lock(ctx, lock.RoomKey(room.ID))
	require.NoError(t, err)
	unlock()
}

func TestRoomService_NotifiesInCommitOrder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, "101")

	window, err := daterange.New(date("2025-03-10"), date("2025-03-12"))
	require.NoError(t, err)
	maintenance, err := models.StateMaintenance(window)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		st := models.StateAvailable()
		if i%2 == 1 {
			st = maintenance
		}
		wg.Add(1)
		go func(st models.RoomState) {
			defer wg.Done()
			assert.NoError(t, env.rooms.SetStatus(ctx, room.ID, st))
		}(st)
	}
	wg.Wait()

	events := env.published.all()
	require.Len(t, events, 20)
	last := events[len(events)-1].state
	assert.Equal(t, env.reloadRoom(t, room.ID).State().Status(), last.Status(), "最后一条通知与存储的房态一致")
}
