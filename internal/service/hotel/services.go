package hotel

import (
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

// Services 共享同一把房间锁和同一个可用性判定器的服务集合
type Services struct {
	Resolver     *AvailabilityResolver
	Rooms        *RoomService
	CheckIns     *CheckInService
	Reservations *ReservationService
	Sequences    *repository.ReservationSequenceRepository
}

// NewServices 组装酒店服务
func NewServices(db *gorm.DB, locker lock.Locker, opts ...Option) *Services {
	roomRepo := repository.NewRoomRepository(db)
	roomTypeRepo := repository.NewRoomTypeRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	seqRepo := repository.NewReservationSequenceRepository(db)

	resolver := NewAvailabilityResolver(db, roomRepo, checkInRepo, reservationRepo)
	numbers := NewNumberGenerator(seqRepo, reservationRepo)

	return &Services{
		Resolver:     resolver,
		Rooms:        NewRoomService(db, locker, roomRepo, roomTypeRepo, checkInRepo, reservationRepo, resolver, opts...),
		CheckIns:     NewCheckInService(db, locker, roomRepo, checkInRepo, guestRepo, reservationRepo, resolver, opts...),
		Reservations: NewReservationService(db, locker, roomRepo, checkInRepo, reservationRepo, resolver, numbers, opts...),
		Sequences:    seqRepo,
	}
}
