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

// ReservationService 预订服务
type ReservationService struct {
	db              *gorm.DB
	tx              *roomTx
	roomRepo        *repository.RoomRepository
	checkInRepo     *repository.CheckInRepository
	reservationRepo *repository.ReservationRepository
	resolver        *AvailabilityResolver
	numbers         *NumberGenerator
	opts            options
}

// NewReservationService 创建预订服务
func NewReservationService(
	db *gorm.DB,
	locker lock.Locker,
	roomRepo *repository.RoomRepository,
	checkInRepo *repository.CheckInRepository,
	reservationRepo *repository.ReservationRepository,
	resolver *AvailabilityResolver,
	numbers *NumberGenerator,
	opts ...Option,
) *ReservationService {
	return &ReservationService{
		db:              db,
		tx:              &roomTx{db: db, locker: locker},
		roomRepo:        roomRepo,
		checkInRepo:     checkInRepo,
		reservationRepo: reservationRepo,
		resolver:        resolver,
		numbers:         numbers,
		opts:            buildOptions(opts),
	}
}

// CreateReservationRequest 创建预订请求
type CreateReservationRequest struct {
	RoomNo          string    `json:"room_no" binding:"required"`
	CheckInDate     time.Time `json:"check_in_date" binding:"required"`
	CheckOutDate    time.Time `json:"check_out_date" binding:"required"`
	GuestCount      int       `json:"guest_count" binding:"required"`
	GuestName       string    `json:"guest_name" binding:"required,max=100"`
	GuestEmail      *string   `json:"guest_email" binding:"omitempty,email"`
	GuestMobile     string    `json:"guest_mobile" binding:"required,max=20"`
	SpecialRequests *string   `json:"special_requests" binding:"omitempty,max=500"`
}

// UpdateReservationRequest 更新预订请求，只应用非空字段
// Status 仅允许 pending、confirmed、no_show；入住和取消走各自的操作
type UpdateReservationRequest struct {
	CheckInDate     *time.Time                `json:"check_in_date"`
	CheckOutDate    *time.Time                `json:"check_out_date"`
	GuestCount      *int                      `json:"guest_count"`
	GuestName       *string                   `json:"guest_name"`
	GuestEmail      *string                   `json:"guest_email"`
	GuestMobile     *string                   `json:"guest_mobile"`
	SpecialRequests *string                   `json:"special_requests"`
	Status          *models.ReservationStatus `json:"status"`
}

// Create 创建预订，状态为待确认
// 预订号冲突时整体重试，超过重试次数返回 Conflict
func (s *ReservationService) Create(ctx context.Context, req *CreateReservationRequest) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.Create", tracing.WithOperation("reservation.create"))
	defer func() {
		metrics.GetMetrics().RecordReservation("create", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	stay, err := daterange.New(daterange.Date(req.CheckInDate), daterange.Date(req.CheckOutDate))
	if err != nil {
		return nil, errors.ErrDateRangeInvalid
	}
	today := daterange.Today(s.opts.now())
	if stay.From.Before(today) {
		return nil, errors.ErrReservationPastDate
	}
	if !s.opts.guestCountValid(req.GuestCount) {
		return nil, errors.ErrGuestCountInvalid
	}
	name, mobile := strings.TrimSpace(req.GuestName), strings.TrimSpace(req.GuestMobile)
	if name == "" || mobile == "" {
		return nil, errors.ErrReservationContactNeed
	}

	room, err := s.roomRepo.GetByRoomNo(ctx, strings.TrimSpace(req.RoomNo))
	if err != nil {
		return nil, notFoundOr(err, errors.ErrRoomNotFound)
	}
	tracing.SetAttributes(ctx, tracing.WithRoomID(room.ID), tracing.WithStay(stay))

	draft := models.Reservation{
		RoomID:          room.ID,
		CheckInDate:     stay.From,
		CheckOutDate:    stay.To,
		GuestCount:      req.GuestCount,
		GuestName:       name,
		GuestEmail:      req.GuestEmail,
		GuestMobile:     mobile,
		SpecialRequests: req.SpecialRequests,
		Status:          models.ReservationStatusPending,
	}

	var reservation *models.Reservation
	for attempt := 1; ; attempt++ {
		candidate := draft
		err = s.tx.run(ctx, room.ID, func(tx *gorm.DB) error {
			return s.insert(ctx, tx, &candidate, stay, today)
		})
		if err == nil {
			reservation = &candidate
			break
		}
		if !errors.Is(err, errors.ErrConcurrentWrite) {
			return nil, err
		}
		if attempt >= s.opts.numberRetries {
			return nil, errors.ErrReservationNumberExhaust.WithError(err)
		}
		tracing.AddEvent(ctx, "reservation.number.retry")
	}

	tracing.SetAttributes(ctx, tracing.WithReservationNo(reservation.ReservationNo))
	logger.Info("预订已创建",
		logger.Module("reservation"),
		logger.ReservationID(reservation.ID),
		logger.ReservationNo(reservation.ReservationNo),
		logger.RoomNo(room.RoomNo),
		logger.Stay(stay.From, stay.To),
	)
	return s.GetByID(ctx, reservation.ID)
}

func (s *ReservationService) insert(ctx context.Context, tx *gorm.DB, reservation *models.Reservation, stay daterange.Range, today time.Time) error {
	room, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, reservation.RoomID)
	if err != nil {
		return notFoundOr(err, errors.ErrRoomNotFound)
	}
	available, err := s.resolver.Check(ctx, tx, room, stay, 0)
	if err != nil {
		return err
	}
	if !available {
		return errors.ErrRoomNotAvailable
	}

	no, err := s.numbers.Next(ctx, tx, today)
	if err != nil {
		return err
	}
	reservation.ReservationNo = no
	return s.reservationRepo.WithTx(tx).Create(ctx, reservation)
}

// Update 更新预订
// 已入住或已取消的预订不可修改；日期变化或重新占用房间时重新判断可用性
func (s *ReservationService) Update(ctx context.Context, id int64, req *UpdateReservationRequest) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.Update", tracing.WithReservationID(id))
	defer func() {
		metrics.GetMetrics().RecordReservation("update", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	if req.Status != nil {
		switch *req.Status {
		case models.ReservationStatusPending, models.ReservationStatusConfirmed, models.ReservationStatusNoShow:
		case models.ReservationStatusCheckedIn, models.ReservationStatusCancelled:
			return nil, errors.ErrReservationStatusError
		default:
			return nil, errors.ErrInvalidParams.WithMessage("无效的预订状态")
		}
	}

	err = s.mutate(ctx, id, func(tx *gorm.DB, current *models.Reservation) error {
		if err := immutable(current); err != nil {
			return err
		}

		merged := *current
		fields := map[string]interface{}{}
		if req.CheckInDate != nil {
			merged.CheckInDate = daterange.Date(*req.CheckInDate)
			fields["check_in_date"] = merged.CheckInDate
		}
		if req.CheckOutDate != nil {
			merged.CheckOutDate = daterange.Date(*req.CheckOutDate)
			fields["check_out_date"] = merged.CheckOutDate
		}
		stay := merged.Stay()
		if !stay.Valid() {
			return errors.ErrDateRangeInvalid
		}
		if req.GuestCount != nil {
			if !s.opts.guestCountValid(*req.GuestCount) {
				return errors.ErrGuestCountInvalid
			}
			fields["guest_count"] = *req.GuestCount
		}
		if req.GuestName != nil && strings.TrimSpace(*req.GuestName) != "" {
			fields["guest_name"] = strings.TrimSpace(*req.GuestName)
		}
		if req.GuestEmail != nil {
			fields["guest_email"] = *req.GuestEmail
		}
		if req.GuestMobile != nil && strings.TrimSpace(*req.GuestMobile) != "" {
			fields["guest_mobile"] = strings.TrimSpace(*req.GuestMobile)
		}
		if req.SpecialRequests != nil {
			fields["special_requests"] = *req.SpecialRequests
		}
		if req.Status != nil {
			merged.Status = *req.Status
			fields["status"] = merged.Status
		}

		datesChanged := !merged.CheckInDate.Equal(current.CheckInDate) || !merged.CheckOutDate.Equal(current.CheckOutDate)
		if merged.Status.Holding() && (datesChanged || !current.Status.Holding()) {
			room, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, current.RoomID)
			if err != nil {
				return notFoundOr(err, errors.ErrRoomNotFound)
			}
			available, err := s.resolver.Check(ctx, tx, room, stay, current.ID)
			if err != nil {
				return err
			}
			if !available {
				return errors.ErrRoomNotAvailable
			}
		}

		if len(fields) == 0 {
			return nil
		}
		return s.reservationRepo.WithTx(tx).UpdateFields(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("预订已更新", logger.Module("reservation"), logger.ReservationID(id))
	return s.GetByID(ctx, id)
}

// Confirm 确认预订，仅待确认状态可确认
func (s *ReservationService) Confirm(ctx context.Context, id int64) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.Confirm", tracing.WithReservationID(id))
	defer func() {
		metrics.GetMetrics().RecordReservation("confirm", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	err = s.mutate(ctx, id, func(tx *gorm.DB, current *models.Reservation) error {
		if current.Status != models.ReservationStatusPending {
			return errors.ErrReservationNotPending
		}
		return s.reservationRepo.WithTx(tx).UpdateFields(ctx, id, map[string]interface{}{
			"status": models.ReservationStatusConfirmed,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("预订已确认", logger.Module("reservation"), logger.ReservationID(id))
	return s.GetByID(ctx, id)
}

// Cancel 取消预订
func (s *ReservationService) Cancel(ctx context.Context, id int64) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.Cancel", tracing.WithReservationID(id))
	defer func() {
		metrics.GetMetrics().RecordReservation("cancel", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	err = s.mutate(ctx, id, func(tx *gorm.DB, current *models.Reservation) error {
		if err := immutable(current); err != nil {
			return err
		}
		return s.reservationRepo.WithTx(tx).UpdateFields(ctx, id, map[string]interface{}{
			"status": models.ReservationStatusCancelled,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("预订已取消", logger.Module("reservation"), logger.ReservationID(id))
	return s.GetByID(ctx, id)
}

// MarkCheckedIn 将预订关联到入住记录并标记为已入住
// 已关联到同一入住记录时直接返回；不校验两者日期是否一致
func (s *ReservationService) MarkCheckedIn(ctx context.Context, reservationID, checkInID int64) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.MarkCheckedIn",
		tracing.WithReservationID(reservationID), tracing.WithCheckInID(checkInID))
	defer func() {
		metrics.GetMetrics().RecordReservation("check_in", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	err = s.mutate(ctx, reservationID, func(tx *gorm.DB, current *models.Reservation) error {
		checkIn, err := s.checkInRepo.WithTx(tx).GetByID(ctx, checkInID)
		if err != nil {
			return notFoundOr(err, errors.ErrCheckInNotFound)
		}
		if current.Status == models.ReservationStatusCheckedIn &&
			current.CheckInID != nil && *current.CheckInID == checkInID {
			return nil
		}
		if err := immutable(current); err != nil {
			return err
		}
		if checkIn.RoomID != current.RoomID {
			return errors.ErrCheckInRoomInvalid
		}
		return s.reservationRepo.WithTx(tx).UpdateFields(ctx, reservationID, map[string]interface{}{
			"status":      models.ReservationStatusCheckedIn,
			"check_in_id": checkInID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("预订已入住",
		logger.Module("reservation"),
		logger.ReservationID(reservationID),
		logger.CheckInID(checkInID),
	)
	return s.GetByID(ctx, reservationID)
}

// Delete 删除预订，不影响房间状态
func (s *ReservationService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "ReservationService.Delete", tracing.WithReservationID(id))
	defer func() {
		metrics.GetMetrics().RecordReservation("delete", metrics.Result(err, rejected))
		tracing.End(span, err)
	}()

	var no string
	err = s.mutate(ctx, id, func(tx *gorm.DB, current *models.Reservation) error {
		no = current.ReservationNo
		return s.reservationRepo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Info("预订已删除",
		logger.Module("reservation"),
		logger.ReservationID(id),
		logger.ReservationNo(no),
	)
	return nil
}

// mutate 在预订所属房间的锁和事务内重新读取预订并执行 fn
func (s *ReservationService) mutate(ctx context.Context, id int64, fn func(tx *gorm.DB, current *models.Reservation) error) error {
	found, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, errors.ErrReservationNotFound)
	}
	return s.tx.run(ctx, found.RoomID, func(tx *gorm.DB) error {
		current, err := s.reservationRepo.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, errors.ErrReservationNotFound)
		}
		return fn(tx, current)
	})
}

// immutable 已入住或已取消的预订不可再变更
func immutable(r *models.Reservation) error {
	switch r.Status {
	case models.ReservationStatusCheckedIn:
		return errors.ErrReservationCheckedIn
	case models.ReservationStatusCancelled:
		return errors.ErrReservationCancelled
	}
	return nil
}

// GetByID 获取预订（包含房间）
func (s *ReservationService) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByIDWithRoom(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrReservationNotFound)
	}
	return reservation, nil
}

// GetByNumber 按预订号获取预订
func (s *ReservationService) GetByNumber(ctx context.Context, no string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByReservationNo(ctx, strings.TrimSpace(no))
	if err != nil {
		return nil, notFoundOr(err, errors.ErrReservationNotFound)
	}
	return reservation, nil
}

// List 获取预订列表
func (s *ReservationService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Reservation, int64, error) {
	reservations, total, err := s.reservationRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return reservations, total, nil
}

// ListByStatus 按状态获取预订列表
func (s *ReservationService) ListByStatus(ctx context.Context, status models.ReservationStatus, offset, limit int) ([]*models.Reservation, int64, error) {
	if !status.Valid() {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的预订状态")
	}
	return s.List(ctx, offset, limit, map[string]interface{}{"status": status})
}

// ListUpcoming 获取今天及以后入住的有效预订
func (s *ReservationService) ListUpcoming(ctx context.Context) ([]*models.Reservation, error) {
	reservations, err := s.reservationRepo.ListUpcoming(ctx, daterange.Today(s.opts.now()))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Debug("查询即将入住的预订", logger.Module("reservation"), zap.Int("count", len(reservations)))
	return reservations, nil
}
