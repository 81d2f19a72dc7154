package hotel

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

// AvailabilityResolver 房间可用性判定
// 房间在 [in, out) 可用当且仅当：
//   - 没有与之重叠的在住入住记录
//   - 没有与之重叠的待确认或已确认预订
//   - 房间状态为可用，或状态窗口不与之重叠
type AvailabilityResolver struct {
	db              *gorm.DB
	roomRepo        *repository.RoomRepository
	checkInRepo     *repository.CheckInRepository
	reservationRepo *repository.ReservationRepository
}

// NewAvailabilityResolver 创建可用性判定器
func NewAvailabilityResolver(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	checkInRepo *repository.CheckInRepository,
	reservationRepo *repository.ReservationRepository,
) *AvailabilityResolver {
	return &AvailabilityResolver{
		db:              db,
		roomRepo:        roomRepo,
		checkInRepo:     checkInRepo,
		reservationRepo: reservationRepo,
	}
}

// Check 在事务 tx 内判断房间在 stay 是否可用
// 调用方必须持有房间锁；excludeReservationID 大于 0 时该预订不参与判断
func (r *AvailabilityResolver) Check(ctx context.Context, tx *gorm.DB, room *models.Room, stay daterange.Range, excludeReservationID int64) (bool, error) {
	available, err := r.check(ctx, tx, room, stay, excludeReservationID)
	if err == nil {
		metrics.GetMetrics().RecordAvailability(available)
	}
	return available, err
}

func (r *AvailabilityResolver) check(ctx context.Context, tx *gorm.DB, room *models.Room, stay daterange.Range, excludeReservationID int64) (bool, error) {
	if room.State().Blocks(stay) {
		return false, nil
	}

	busy, err := r.checkInRepo.WithTx(tx).HasActiveOverlap(ctx, room.ID, stay)
	if err != nil {
		return false, err
	}
	if busy {
		return false, nil
	}

	held, err := r.reservationRepo.WithTx(tx).HasHoldingOverlap(ctx, room.ID, stay, excludeReservationID)
	if err != nil {
		return false, err
	}
	return !held, nil
}

// IsAvailable 查询房间在 [checkIn, checkOut) 是否可用
func (r *AvailabilityResolver) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	stay, err := daterange.New(daterange.Date(checkIn), daterange.Date(checkOut))
	if err != nil {
		return false, errors.ErrDateRangeInvalid
	}

	var available bool
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := r.roomRepo.WithTx(tx).GetByID(ctx, roomID)
		if err != nil {
			return notFoundOr(err, errors.ErrRoomNotFound)
		}
		available, err = r.Check(ctx, tx, room, stay, 0)
		return err
	})
	if err != nil {
		return false, toAppError(err)
	}
	return available, nil
}

// ListAvailableRooms 列出在 [checkIn, checkOut) 可用的房间，按房间号排序
func (r *AvailabilityResolver) ListAvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]*models.Room, error) {
	stay, err := daterange.New(daterange.Date(checkIn), daterange.Date(checkOut))
	if err != nil {
		return nil, errors.ErrDateRangeInvalid
	}

	candidates, err := r.roomRepo.ListWithoutBookings(ctx, stay)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	rooms := make([]*models.Room, 0, len(candidates))
	for _, room := range candidates {
		if !room.State().Blocks(stay) {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}
