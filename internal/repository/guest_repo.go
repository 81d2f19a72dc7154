package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// GuestRepository 入住客人仓储
type GuestRepository struct {
	db *gorm.DB
}

// NewGuestRepository 创建入住客人仓储
func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

// GetByID 根据 ID 获取客人
func (r *GuestRepository) GetByID(ctx context.Context, id int64) (*models.Guest, error) {
	var guest models.Guest
	if err := r.db.WithContext(ctx).First(&guest, id).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

// ListByCheckIn 获取入住记录下的客人，按序号排列
func (r *GuestRepository) ListByCheckIn(ctx context.Context, checkInID int64) ([]*models.Guest, error) {
	var guests []*models.Guest
	err := r.db.WithContext(ctx).
		Where("check_in_id = ?", checkInID).
		Order("guest_number ASC").
		Find(&guests).Error
	return guests, err
}

// CountByCheckIn 入住记录下的客人数
func (r *GuestRepository) CountByCheckIn(ctx context.Context, checkInID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Guest{}).Where("check_in_id = ?", checkInID).Count(&count).Error
	return count, err
}
