package repository

import (
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
)

// overlapping 与 r 相交的入住区间，和 daterange.Overlaps 语义一致
func overlapping(r daterange.Range) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("check_in_date < ? AND check_out_date > ?", r.To, r.From)
	}
}
