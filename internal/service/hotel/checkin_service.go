package hotel

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

// CheckInService 入住服务
type CheckInService struct {
	db              *gorm.DB
	tx              *roomTx
	roomRepo        *repository.RoomRepository
	checkInRepo     *repository.CheckInRepository
	guestRepo       *repository.GuestRepository
	reservationRepo *repository.ReservationRepository
	resolver        *AvailabilityResolver
	opts            options
}

// NewCheckInService 创建入住服务
func NewCheckInService(
	db *gorm.DB,
	locker lock.Locker,
	roomRepo *repository.RoomRepository,
	checkInRepo *repository.CheckInRepository,
	guestRepo *repository.GuestRepository,
	reservationRepo *repository.ReservationRepository,
	resolver *AvailabilityResolver,
	opts ...Option,
) *CheckInService {
	return &CheckInService{
		db:              db,
		tx:              &roomTx{db: db, locker: locker},
		roomRepo:        roomRepo,
		checkInRepo:     checkInRepo,
		guestRepo:       guestRepo,
		reservationRepo: reservationRepo,
		resolver:        resolver,
		opts:            buildOptions(opts),
	}
}

// GuestInput 入住客人信息
type GuestInput struct {
	GuestName  string  `json:"guest_name" binding:"required,max=100"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Country    *string `json:"country"`
	MobileNo   *string `json:"mobile_no"`
	IDType     *string `json:"id_type"`
	IDNumber   *string `json:"id_number"`
	Photo1Path *string `json:"photo1_path"`
	Photo2Path *string `json:"photo2_path"`
}

// CreateCheckInRequest 办理入住请求
// ReservationID 非空时本次入住履行该预订，该预订不参与占用判断并在同一事务内标记为已入住
type CreateCheckInRequest struct {
	RoomNo        string       `json:"room_no" binding:"required"`
	CheckInDate   time.Time    `json:"check_in_date" binding:"required"`
	CheckOutDate  time.Time    `json:"check_out_date" binding:"required"`
	Guests        []GuestInput `json:"guests" binding:"required,dive"`
	Remarks       *string      `json:"remarks"`
	ReservationID *int64       `json:"reservation_id"`
}

// Create 办理入住
// 入住记录、客人和房间状态在同一事务内写入
func (s *CheckInService) Create(ctx context.Context, req *CreateCheckInRequest) (result *models.CheckIn, err error) {
	ctx, span := tracing.Start(ctx, "CheckInService.Create", tracing.WithOperation("checkin.create"))
	defer func() {
		metrics.GetMetrics().RecordCheckIn("create", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	stay, err := daterange.New(daterange.Date(req.CheckInDate), daterange.Date(req.CheckOutDate))
	if err != nil {
		return nil, errors.ErrDateRangeInvalid
	}
	if !s.opts.guestCountValid(len(req.Guests)) {
		return nil, errors.ErrGuestCountInvalid
	}
	guests := make([]models.Guest, len(req.Guests))
	for i, g := range req.Guests {
		name := strings.TrimSpace(g.GuestName)
		if name == "" {
			return nil, errors.ErrGuestNameRequired
		}
		guests[i] = models.Guest{
			GuestNumber: i + 1,
			GuestName:   name,
			Address:     g.Address,
			City:        g.City,
			State:       g.State,
			Country:     g.Country,
			MobileNo:    g.MobileNo,
			IDType:      g.IDType,
			IDNumber:    g.IDNumber,
			Photo1Path:  g.Photo1Path,
			Photo2Path:  g.Photo2Path,
		}
	}

	room, err := s.roomRepo.GetByRoomNo(ctx, strings.TrimSpace(req.RoomNo))
	if err != nil {
		return nil, notFoundOr(err, errors.ErrRoomNotFound)
	}
	tracing.SetAttributes(ctx, tracing.WithRoomID(room.ID), tracing.WithStay(stay))

	var (
		checkIn   *models.CheckIn
		roomState models.RoomState
	)
	err = s.tx.run(ctx, room.ID, func(tx *gorm.DB) error {
		locked, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, room.ID)
		if err != nil {
			return notFoundOr(err, errors.ErrRoomNotFound)
		}

		var fulfils *models.Reservation
		if req.ReservationID != nil {
			fulfils, err = s.reservationRepo.WithTx(tx).GetByID(ctx, *req.ReservationID)
			if err != nil {
				return notFoundOr(err, errors.ErrReservationNotFound)
			}
			if fulfils.RoomID != locked.ID {
				return errors.ErrCheckInRoomInvalid
			}
			if !fulfils.Status.Holding() {
				return errors.ErrReservationStatusError
			}
		}

		var excludeID int64
		if fulfils != nil {
			excludeID = fulfils.ID
		}
		available, err := s.resolver.Check(ctx, tx, locked, stay, excludeID)
		if err != nil {
			return err
		}
		if !available {
			return errors.ErrRoomNotAvailable
		}

		occupied, err := models.StateOccupied(stay)
		if err != nil {
			return err
		}

		now := s.opts.now().UTC()
		checkIn = &models.CheckIn{
			RoomID:          locked.ID,
			CheckInDate:     stay.From,
			CheckOutDate:    stay.To,
			ActualCheckInAt: &now,
			Pax:             len(guests),
			Status:          models.CheckInStatusActive,
			Remarks:         req.Remarks,
			Guests:          guests,
		}
		if err := s.checkInRepo.WithTx(tx).Create(ctx, checkIn); err != nil {
			return err
		}
		if err := s.roomRepo.WithTx(tx).UpdateState(ctx, locked.ID, occupied); err != nil {
			return err
		}
		roomState = occupied
		if fulfils != nil {
			return s.reservationRepo.WithTx(tx).UpdateFields(ctx, fulfils.ID, map[string]interface{}{
				"status":      models.ReservationStatusCheckedIn,
				"check_in_id": checkIn.ID,
			})
		}
		return nil
	}, func() {
		s.opts.publisher.PublishRoomState(room.ID, roomState)
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		logger.Module("checkin"),
		logger.CheckInID(checkIn.ID),
		logger.RoomNo(room.RoomNo),
		logger.Stay(stay.From, stay.To),
	}
	if req.ReservationID != nil {
		fields = append(fields, logger.ReservationID(*req.ReservationID))
	}
	logger.Info("入住已办理", fields...)

	return s.GetByID(ctx, checkIn.ID)
}

// CheckOut 办理退房，房间转为待清洁
func (s *CheckInService) CheckOut(ctx context.Context, id int64) (result *models.CheckIn, err error) {
	ctx, span := tracing.Start(ctx, "CheckInService.CheckOut", tracing.WithCheckInID(id))
	defer func() {
		metrics.GetMetrics().RecordCheckIn("check_out", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	current, err := s.checkInRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrCheckInNotFound)
	}

	err = s.tx.run(ctx, current.RoomID, func(tx *gorm.DB) error {
		if _, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, current.RoomID); err != nil {
			return notFoundOr(err, errors.ErrRoomNotFound)
		}
		repo := s.checkInRepo.WithTx(tx)
		checkIn, err := repo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, errors.ErrCheckInNotFound)
		}
		if checkIn.Status != models.CheckInStatusActive {
			return errors.ErrCheckInNotActive
		}

		now := s.opts.now().UTC()
		if err := repo.UpdateFields(ctx, id, map[string]interface{}{
			"status":              models.CheckInStatusCheckedOut,
			"actual_check_out_at": now,
		}); err != nil {
			return err
		}
		return s.roomRepo.WithTx(tx).UpdateState(ctx, checkIn.RoomID, models.StateDirty())
	}, func() {
		s.opts.publisher.PublishRoomState(current.RoomID, models.StateDirty())
	})
	if err != nil {
		return nil, err
	}

	logger.Info("退房已办理",
		logger.Module("checkin"),
		logger.CheckInID(id),
		logger.RoomID(current.RoomID),
	)
	return s.GetByID(ctx, id)
}

// Delete 删除入住记录及其客人
// 在住记录删除后房间恢复可用
func (s *CheckInService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "CheckInService.Delete", tracing.WithCheckInID(id))
	defer func() {
		metrics.GetMetrics().RecordCheckIn("delete", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	current, err := s.checkInRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, errors.ErrCheckInNotFound)
	}

	freed := false
	err = s.tx.run(ctx, current.RoomID, func(tx *gorm.DB) error {
		repo := s.checkInRepo.WithTx(tx)
		checkIn, err := repo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, errors.ErrCheckInNotFound)
		}
		if checkIn.Status == models.CheckInStatusActive {
			if err := s.roomRepo.WithTx(tx).UpdateState(ctx, checkIn.RoomID, models.StateAvailable()); err != nil {
				return err
			}
			freed = true
		}
		if err := s.reservationRepo.WithTx(tx).UnlinkCheckIn(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	}, func() {
		if freed {
			s.opts.publisher.PublishRoomState(current.RoomID, models.StateAvailable())
		}
	})
	if err != nil {
		return err
	}

	logger.Info("入住记录已删除",
		logger.Module("checkin"),
		logger.CheckInID(id),
		logger.RoomID(current.RoomID),
	)
	return nil
}

// GetByID 获取入住记录（包含房间和客人）
func (s *CheckInService) GetByID(ctx context.Context, id int64) (*models.CheckIn, error) {
	checkIn, err := s.checkInRepo.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrCheckInNotFound)
	}
	return checkIn, nil
}

// List 获取入住记录列表
func (s *CheckInService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.CheckIn, int64, error) {
	checkIns, total, err := s.checkInRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return checkIns, total, nil
}

// ListActive 获取全部在住记录
func (s *CheckInService) ListActive(ctx context.Context) ([]*models.CheckIn, error) {
	checkIns, err := s.checkInRepo.ListActive(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return checkIns, nil
}

// ListGuests 获取入住记录的客人
func (s *CheckInService) ListGuests(ctx context.Context, checkInID int64) ([]*models.Guest, error) {
	if _, err := s.checkInRepo.GetByID(ctx, checkInID); err != nil {
		return nil, notFoundOr(err, errors.ErrCheckInNotFound)
	}
	guests, err := s.guestRepo.ListByCheckIn(ctx, checkInID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return guests, nil
}

// GetGuest 获取客人
func (s *CheckInService) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	guest, err := s.guestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrGuestNotFound)
	}
	return guest, nil
}
