package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// CheckInRepository 入住记录仓储
type CheckInRepository struct {
	db *gorm.DB
}

// NewCheckInRepository 创建入住记录仓储
func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *CheckInRepository) WithTx(tx *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: tx}
}

// Create 创建入住记录，同时写入 Guests
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	return r.db.WithContext(ctx).Create(checkIn).Error
}

// GetByID 根据 ID 获取入住记录
func (r *CheckInRepository) GetByID(ctx context.Context, id int64) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	if err := r.db.WithContext(ctx).First(&checkIn, id).Error; err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// GetByIDWithDetails 根据 ID 获取入住记录（包含房间和客人）
func (r *CheckInRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("Guests", func(db *gorm.DB) *gorm.DB {
			return db.Order("guest_number ASC")
		}).
		First(&checkIn, id).Error
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// UpdateFields 更新指定字段
func (r *CheckInRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.CheckIn{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除入住记录及其客人
func (r *CheckInRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("check_in_id = ?", id).Delete(&models.Guest{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.CheckIn{}, id).Error
}

// HasActiveOverlap 房间在 stay 内是否有在住的入住记录
func (r *CheckInRepository) HasActiveOverlap(ctx context.Context, roomID int64, stay daterange.Range) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).
		Where("room_id = ? AND status = ?", roomID, models.CheckInStatusActive).
		Scopes(overlapping(stay)).
		Count(&count).Error
	return count > 0, err
}

// CountByRoom 房间的入住记录数
func (r *CheckInRepository) CountByRoom(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CheckIn{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

// List 获取入住记录列表
func (r *CheckInRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.CheckIn, int64, error) {
	var checkIns []*models.CheckIn
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CheckIn{})

	if roomID, ok := filters["room_id"].(int64); ok && roomID > 0 {
		query = query.Where("room_id = ?", roomID)
	}
	if status, ok := filters["status"].(models.CheckInStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Room").
		Order("check_in_date DESC, id DESC").
		Scopes(database.Page(offset, limit)).
		Find(&checkIns).Error; err != nil {
		return nil, 0, err
	}

	return checkIns, total, nil
}

// ListActive 获取全部在住记录
func (r *CheckInRepository) ListActive(ctx context.Context) ([]*models.CheckIn, error) {
	var checkIns []*models.CheckIn
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("Guests", func(db *gorm.DB) *gorm.DB {
			return db.Order("guest_number ASC")
		}).
		Where("status = ?", models.CheckInStatusActive).
		Order("check_in_date ASC").
		Find(&checkIns).Error
	return checkIns, err
}
