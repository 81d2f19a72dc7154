package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/database"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// ReservationRepository 预订仓储
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预订仓储
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ReservationRepository) WithTx(tx *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

// Create 创建预订
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID 根据 ID 获取预订
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByIDWithRoom 根据 ID 获取预订（包含房间）
func (r *ReservationRepository) GetByIDWithRoom(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Preload("Room").First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByReservationNo 根据预订号获取预订
func (r *ReservationRepository) GetByReservationNo(ctx context.Context, reservationNo string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("reservation_no = ?", reservationNo).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateFields 更新指定字段
func (r *ReservationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除预订
func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, id).Error
}

// UnlinkCheckIn 清除关联到 checkInID 的预订引用
func (r *ReservationRepository) UnlinkCheckIn(ctx context.Context, checkInID int64) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("check_in_id = ?", checkInID).
		Update("check_in_id", nil).Error
}

// HasHoldingOverlap 房间在 stay 内是否有待确认或已确认的预订，excludeID 不参与判断
func (r *ReservationRepository) HasHoldingOverlap(ctx context.Context, roomID int64, stay daterange.Range, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ?", roomID, models.HoldingReservationStatuses).
		Scopes(overlapping(stay))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CountByRoom 统计房间的预订数量（任意状态）
func (r *ReservationRepository) CountByRoom(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

// MaxNoWithPrefix 指定前缀下最大的预订号，不存在时返回空串
func (r *ReservationRepository) MaxNoWithPrefix(ctx context.Context, prefix string) (string, error) {
	var nos []string
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("reservation_no LIKE ?", prefix+"%").
		Order("reservation_no DESC").
		Limit(1).
		Pluck("reservation_no", &nos).Error
	if err != nil || len(nos) == 0 {
		return "", err
	}
	return nos[0], nil
}

// List 获取预订列表
func (r *ReservationRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Reservation, int64, error) {
	var reservations []*models.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Reservation{})

	if roomID, ok := filters["room_id"].(int64); ok && roomID > 0 {
		query = query.Where("room_id = ?", roomID)
	}
	if status, ok := filters["status"].(models.ReservationStatus); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if guestName, ok := filters["guest_name"].(string); ok && guestName != "" {
		query = query.Where("guest_name LIKE ?", "%"+guestName+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Room").
		Order("check_in_date DESC, id DESC").
		Scopes(database.Page(offset, limit)).
		Find(&reservations).Error; err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}

// ListUpcoming 获取入住日不早于 today 的有效预订，按入住日升序
func (r *ReservationRepository) ListUpcoming(ctx context.Context, today time.Time) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("check_in_date >= ?", today).
		Where("status IN ?", models.HoldingReservationStatuses).
		Order("check_in_date ASC, id ASC").
		Find(&reservations).Error
	return reservations, err
}
