package hotel

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/lock"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	"github.com/dumeirei/hotel-inventory-backend/internal/repository"
)

// RoomService 房间服务
type RoomService struct {
	db           *gorm.DB
	tx           *roomTx
	roomRepo     *repository.RoomRepository
	roomTypeRepo *repository.RoomTypeRepository
	checkInRepo  *repository.CheckInRepository
	reservations *repository.ReservationRepository
	resolver     *AvailabilityResolver
	opts         options
}

// NewRoomService 创建房间服务
func NewRoomService(
	db *gorm.DB,
	locker lock.Locker,
	roomRepo *repository.RoomRepository,
	roomTypeRepo *repository.RoomTypeRepository,
	checkInRepo *repository.CheckInRepository,
	reservationRepo *repository.ReservationRepository,
	resolver *AvailabilityResolver,
	opts ...Option,
) *RoomService {
	return &RoomService{
		db:           db,
		tx:           &roomTx{db: db, locker: locker},
		roomRepo:     roomRepo,
		roomTypeRepo: roomTypeRepo,
		checkInRepo:  checkInRepo,
		reservations: reservationRepo,
		resolver:     resolver,
		opts:         buildOptions(opts),
	}
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	RoomNo     string            `json:"room_no" binding:"required,max=20"`
	RoomTypeID int64             `json:"room_type_id" binding:"required"`
	Status     models.RoomStatus `json:"status"`
	StatusFrom *time.Time        `json:"status_from"`
	StatusTo   *time.Time        `json:"status_to"`
}

// UpdateRoomStatusRequest 更新房间状态请求
type UpdateRoomStatusRequest struct {
	Status     models.RoomStatus `json:"status" binding:"required"`
	StatusFrom *time.Time        `json:"status_from"`
	StatusTo   *time.Time        `json:"status_to"`
}

// CreateRoomTypeRequest 创建房型请求
type CreateRoomTypeRequest struct {
	Name        string  `json:"name" binding:"required,max=50"`
	Description *string `json:"description"`
}

// Create 创建房间
func (s *RoomService) Create(ctx context.Context, req *CreateRoomRequest) (*models.Room, error) {
	roomNo := strings.TrimSpace(req.RoomNo)
	if roomNo == "" {
		return nil, errors.ErrInvalidParams.WithMessage("房间号不能为空")
	}

	st := models.StateAvailable()
	if req.Status != "" {
		var err error
		if st, err = models.NewRoomState(req.Status, req.StatusFrom, req.StatusTo); err != nil {
			return nil, err
		}
	}

	exists, err := s.roomTypeRepo.Exists(ctx, req.RoomTypeID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !exists {
		return nil, errors.ErrRoomTypeNotFound
	}

	taken, err := s.roomRepo.ExistsByRoomNo(ctx, roomNo)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if taken {
		return nil, errors.ErrRoomNoExists
	}

	room := &models.Room{RoomNo: roomNo, RoomTypeID: req.RoomTypeID}
	room.SetState(st)
	if err := s.roomRepo.Create(ctx, room); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errors.ErrRoomNoExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("房间已创建",
		logger.Module("room"),
		logger.RoomID(room.ID),
		logger.RoomNo(room.RoomNo),
		zap.Stringer("state", st),
	)
	return s.GetByID(ctx, room.ID)
}

// GetByID 获取房间（包含房型）
func (s *RoomService) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByIDWithType(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errors.ErrRoomNotFound)
	}
	return room, nil
}

// GetByNumber 按房间号获取房间
func (s *RoomService) GetByNumber(ctx context.Context, roomNo string) (*models.Room, error) {
	room, err := s.roomRepo.GetByRoomNo(ctx, strings.TrimSpace(roomNo))
	if err != nil {
		return nil, notFoundOr(err, errors.ErrRoomNotFound)
	}
	return room, nil
}

// List 获取房间列表
func (s *RoomService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Room, int64, error) {
	rooms, total, err := s.roomRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return rooms, total, nil
}

// GetStatus 读取房间状态
func (s *RoomService) GetStatus(ctx context.Context, roomID int64) (models.RoomState, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return models.RoomState{}, notFoundOr(err, errors.ErrRoomNotFound)
	}
	return room.State(), nil
}

// SetStatus 在房间锁内写入房间状态
func (s *RoomService) SetStatus(ctx context.Context, roomID int64, st models.RoomState) (err error) {
	ctx, span := tracing.Start(ctx, "RoomService.SetStatus", tracing.WithRoomID(roomID))
	defer func() { tracing.End(span, err) }()

	err = s.tx.run(ctx, roomID, func(tx *gorm.DB) error {
		repo := s.roomRepo.WithTx(tx)
		if _, err := repo.GetByIDForUpdate(ctx, roomID); err != nil {
			return notFoundOr(err, errors.ErrRoomNotFound)
		}
		return repo.UpdateState(ctx, roomID, st)
	}, func() {
		s.opts.publisher.PublishRoomState(roomID, st)
	})
	if err != nil {
		return err
	}

	metrics.GetMetrics().RecordRoomStatus(string(st.Status()))
	logger.Info("房间状态已更新",
		logger.Module("room"),
		logger.RoomID(roomID),
		zap.Stringer("state", st),
	)
	return nil
}

// UpdateStatus 按请求更新房间状态并返回房间
func (s *RoomService) UpdateStatus(ctx context.Context, roomID int64, req *UpdateRoomStatusRequest) (*models.Room, error) {
	st, err := models.NewRoomState(req.Status, req.StatusFrom, req.StatusTo)
	if err != nil {
		return nil, err
	}
	if err := s.SetStatus(ctx, roomID, st); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, roomID)
}

// Delete 删除房间，存在入住或预订记录时拒绝
func (s *RoomService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.Start(ctx, "RoomService.Delete", tracing.WithRoomID(id))
	defer func() { tracing.End(span, err) }()

	err = s.tx.run(ctx, id, func(tx *gorm.DB) error {
		repo := s.roomRepo.WithTx(tx)
		if _, err := repo.GetByIDForUpdate(ctx, id); err != nil {
			return notFoundOr(err, errors.ErrRoomNotFound)
		}
		count, err := s.checkInRepo.WithTx(tx).CountByRoom(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.ErrRoomHasCheckIns
		}
		count, err = s.reservations.WithTx(tx).CountByRoom(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.ErrRoomHasReservations
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Info("房间已删除", logger.Module("room"), logger.RoomID(id))
	return nil
}

// ListAvailable 列出在 [checkIn, checkOut) 可用的房间
func (s *RoomService) ListAvailable(ctx context.Context, checkIn, checkOut time.Time) ([]*models.Room, error) {
	return s.resolver.ListAvailableRooms(ctx, checkIn, checkOut)
}

// IsAvailable 判断房间在 [checkIn, checkOut) 是否可用
func (s *RoomService) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	return s.resolver.IsAvailable(ctx, roomID, checkIn, checkOut)
}

// CreateRoomType 创建房型
func (s *RoomService) CreateRoomType(ctx context.Context, req *CreateRoomTypeRequest) (*models.RoomType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidParams.WithMessage("房型名称不能为空")
	}
	roomType := &models.RoomType{Name: name, Description: req.Description}
	if err := s.roomTypeRepo.Create(ctx, roomType); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errors.ErrInvalidParams.WithMessage("房型名称已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return roomType, nil
}

// ListRoomTypes 获取全部房型
func (s *RoomService) ListRoomTypes(ctx context.Context) ([]*models.RoomType, error) {
	types, err := s.roomTypeRepo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return types, nil
}
