package models

import "gorm.io/gorm"

// All 需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&RoomType{},
		&Room{},
		&CheckIn{},
		&Guest{},
		&Reservation{},
		&ReservationSequence{},
	}
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
