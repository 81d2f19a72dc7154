// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID 根据 ID 获取房间
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByIDForUpdate 根据 ID 获取房间并加行锁（仅 Postgres）
func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := database.ForUpdate(r.db.WithContext(ctx)).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByIDWithType 根据 ID 获取房间（包含房型）
func (r *RoomRepository) GetByIDWithType(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("RoomType").
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByRoomNo 根据房间号获取房间
func (r *RoomRepository) GetByRoomNo(ctx context.Context, roomNo string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("room_no = ?", roomNo).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByRoomNo 房间号是否已存在
func (r *RoomRepository) ExistsByRoomNo(ctx context.Context, roomNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("room_no = ?", roomNo).Count(&count).Error
	return count > 0, err
}

// UpdateState 写入房间状态和窗口
func (r *RoomRepository) UpdateState(ctx context.Context, id int64, st models.RoomState) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Updates(st.StateColumns()).Error
}

// Delete 删除房间
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// List 获取房间列表
func (r *RoomRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Room, int64, error) {
	var rooms []*models.Room
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Room{})

	if roomTypeID, ok := filters["room_type_id"].(int64); ok && roomTypeID > 0 {
		query = query.Where("room_type_id = ?", roomTypeID)
	}
	if status, ok := filters["status"].(models.RoomStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("RoomType").Order("room_no ASC").Scopes(database.Page(offset, limit)).Find(&rooms).Error; err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

// ListWithoutBookings 获取在 stay 内没有在住入住和有效预订的房间
// 房间状态窗口的判断由调用方完成
func (r *RoomRepository) ListWithoutBookings(ctx context.Context, stay daterange.Range) ([]*models.Room, error) {
	db := r.db.WithContext(ctx)

	activeCheckIns := db.Session(&gorm.Session{NewDB: true}).Model(&models.CheckIn{}).
		Select("room_id").
		Where("status = ?", models.CheckInStatusActive).
		Scopes(overlapping(stay))

	holdingReservations := db.Session(&gorm.Session{NewDB: true}).Model(&models.Reservation{}).
		Select("room_id").
		Where("status IN ?", models.HoldingReservationStatuses).
		Scopes(overlapping(stay))

	var rooms []*models.Room
	err := db.
		Preload("RoomType").
		Where("id NOT IN (?)", activeCheckIns).
		Where("id NOT IN (?)", holdingReservations).
		Order("room_no ASC").
		Find(&rooms).Error
	return rooms, err
}
