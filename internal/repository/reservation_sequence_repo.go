package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// ReservationSequenceRepository 每日预订号序列仓储
type ReservationSequenceRepository struct {
	db *gorm.DB
}

// NewReservationSequenceRepository 创建序列仓储
func NewReservationSequenceRepository(db *gorm.DB) *ReservationSequenceRepository {
	return &ReservationSequenceRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ReservationSequenceRepository) WithTx(tx *gorm.DB) *ReservationSequenceRepository {
	return &ReservationSequenceRepository{db: tx}
}

// Increment 将 day 的序列加一并返回新值
// 当天尚无序列时返回 ok=false，由调用方决定初始值后调用 Insert
func (r *ReservationSequenceRepository) Increment(ctx context.Context, day string) (seq int, ok bool, err error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&models.ReservationSequence{}).
		Where("day = ?", day).
		Update("last_seq", gorm.Expr("last_seq + 1"))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	var row models.ReservationSequence
	if err := db.Where("day = ?", day).First(&row).Error; err != nil {
		return 0, false, err
	}
	return row.LastSeq, true, nil
}

// Insert 创建 day 的序列，并发插入同一天时返回 gorm.ErrDuplicatedKey
func (r *ReservationSequenceRepository) Insert(ctx context.Context, day string, seq int) error {
	return r.db.WithContext(ctx).Create(&models.ReservationSequence{Day: day, LastSeq: seq}).Error
}

// Get 获取 day 的序列
func (r *ReservationSequenceRepository) Get(ctx context.Context, day string) (*models.ReservationSequence, error) {
	var row models.ReservationSequence
	if err := r.db.WithContext(ctx).Where("day = ?", day).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteBefore 删除早于 day 的序列
func (r *ReservationSequenceRepository) DeleteBefore(ctx context.Context, day string) (int64, error) {
	res := r.db.WithContext(ctx).Where("day < ?", day).Delete(&models.ReservationSequence{})
	return res.RowsAffected, res.Error
}
