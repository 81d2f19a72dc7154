package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// RoomTypeRepository 房型仓储
type RoomTypeRepository struct {
	db *gorm.DB
}

// NewRoomTypeRepository 创建房型仓储
func NewRoomTypeRepository(db *gorm.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: db}
}

// Create 创建房型
func (r *RoomTypeRepository) Create(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

// GetByID 根据 ID 获取房型
func (r *RoomTypeRepository) GetByID(ctx context.Context, id int64) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// GetByName 根据名称获取房型
func (r *RoomTypeRepository) GetByName(ctx context.Context, name string) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&roomType).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// Exists 房型是否存在
func (r *RoomTypeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List 获取全部房型
func (r *RoomTypeRepository) List(ctx context.Context) ([]*models.RoomType, error) {
	var types []*models.RoomType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}
