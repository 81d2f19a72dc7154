package hotel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// testClock 可调整的测试时钟
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// roomEvent 一次房间状态通知
type roomEvent struct {
	roomID int64
	state  models.RoomState
	// underLock 通知时房间锁是否仍被持有，仅在设置 lockCheck 时记录
	underLock bool
}

// recordingPublisher 记录收到的房间状态通知
type recordingPublisher struct {
	mu     sync.Mutex
	events []roomEvent
	// lockCheck 非空时，每次通知都尝试短暂获取房间锁
	lockCheck lock.Locker
}

func (p *recordingPublisher) PublishRoomState(roomID int64, st models.RoomState) {
	ev := roomEvent{roomID: roomID, state: st}
	if p.lockCheck != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		unlock, err := p.lockCheck.Lock(ctx, lock.RoomKey(roomID))
		cancel()
		if err == nil {
			unlock()
		}
		ev.underLock = err != nil
	}

	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) all() []roomEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]roomEvent(nil), p.events...)
}

// testEnv 测试用服务集合
type testEnv struct {
	db           *gorm.DB
	clock        *testClock
	locker       lock.Locker
	resolver     *AvailabilityResolver
	rooms        *RoomService
	checkIns     *CheckInService
	reservations *ReservationService
	published    *recordingPublisher
	roomType     *models.RoomType
}

// newTestEnv 在 db 上组装服务，时钟固定为 2025-03-01 09:00 UTC
func newTestEnv(t *testing.T, db *gorm.DB, locker lock.Locker) *testEnv {
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	published := &recordingPublisher{}
	svc := NewServices(db, locker,
		WithClock(clock.Now),
		WithMaxGuests(3),
		WithNumberRetries(10),
		WithStatusPublisher(published),
	)

	env := &testEnv{
		db:           db,
		clock:        clock,
		locker:       locker,
		resolver:     svc.Resolver,
		rooms:        svc.Rooms,
		checkIns:     svc.CheckIns,
		reservations: svc.Reservations,
		published:    published,
	}

	roomType := &models.RoomType{Name: "标准间"}
	require.NoError(t, db.Where(models.RoomType{Name: roomType.Name}).FirstOrCreate(roomType).Error)
	env.roomType = roomType
	return env
}

func setupTestEnv(t *testing.T) *testEnv {
	return newTestEnv(t, setupTestDB(t), lock.NewLocalLocker(5*time.Second))
}

// createRoom 创建可用房间
func (e *testEnv) createRoom(t *testing.T, roomNo string) *models.Room {
	room, err := e.rooms.Create(context.Background(), &CreateRoomRequest{RoomNo: roomNo, RoomTypeID: e.roomType.ID})
	require.NoError(t, err)
	return room
}

// reloadRoom 重新读取房间
func (e *testEnv) reloadRoom(t *testing.T, id int64) *models.Room {
	var room models.Room
	require.NoError(t, e.db.First(&room, id).Error)
	return &room
}

func date(s string) time.Time {
	return daterange.MustParse(s)
}

func ptr[T any](v T) *T {
	return &v
}

func guests(names ...string) []GuestInput {
	out := make([]GuestInput, len(names))
	for i, n := range names {
		out[i] = GuestInput{GuestName: n}
	}
	return out
}

func checkInReq(roomNo, from, to string, names ...string) *CreateCheckInRequest {
	return &CreateCheckInRequest{
		RoomNo:       roomNo,
		CheckInDate:  date(from),
		CheckOutDate: date(to),
		Guests:       guests(names...),
	}
}

func reservationReq(roomNo, from, to string, count int) *CreateReservationRequest {
	return &CreateReservationRequest{
		RoomNo:       roomNo,
		CheckInDate:  date(from),
		CheckOutDate: date(to),
		GuestCount:   count,
		GuestName:    "张三",
		GuestMobile:  "13800000000",
	}
}
