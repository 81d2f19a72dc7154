package models

import (
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
)

// CheckIn 入住记录
type CheckIn struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID           int64         `gorm:"index;not null" json:"room_id"`
	CheckInDate      time.Time     `gorm:"type:date;not null;index" json:"check_in_date"`
	CheckOutDate     time.Time     `gorm:"type:date;not null" json:"check_out_date"`
	ActualCheckInAt  *time.Time    `json:"actual_check_in_at,omitempty"`
	ActualCheckOutAt *time.Time    `json:"actual_check_out_at,omitempty"`
	Pax              int           `gorm:"not null" json:"pax"`
	Status           CheckInStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Remarks          *string       `gorm:"type:varchar(500)" json:"remarks,omitempty"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Room   *Room   `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Guests []Guest `gorm:"foreignKey:CheckInID" json:"guests,omitempty"`
}

// TableName 表名
func (CheckIn) TableName() string {
	return "check_ins"
}

// Stay 入住日期区间
func (c *CheckIn) Stay() daterange.Range {
	return daterange.Range{From: c.CheckInDate, To: c.CheckOutDate}
}

// CheckInStatus 入住状态
type CheckInStatus string

const (
	CheckInStatusActive     CheckInStatus = "active"      // 在住
	CheckInStatusCheckedOut CheckInStatus = "checked_out" // 已退房
	CheckInStatusCancelled  CheckInStatus = "cancelled"   // 已取消
)

// Guest 入住客人
type Guest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CheckInID   int64     `gorm:"uniqueIndex:idx_guest_check_in_number;not null" json:"check_in_id"`
	GuestNumber int       `gorm:"uniqueIndex:idx_guest_check_in_number;not null" json:"guest_number"`
	GuestName   string    `gorm:"type:varchar(100);not null" json:"guest_name"`
	Address     *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	City        *string   `gorm:"type:varchar(50)" json:"city,omitempty"`
	State       *string   `gorm:"type:varchar(50)" json:"state,omitempty"`
	Country     *string   `gorm:"type:varchar(50)" json:"country,omitempty"`
	MobileNo    *string   `gorm:"type:varchar(20)" json:"mobile_no,omitempty"`
	IDType      *string   `gorm:"type:varchar(30)" json:"id_type,omitempty"`
	IDNumber    *string   `gorm:"type:varchar(50)" json:"id_number,omitempty"`
	Photo1Path  *string   `gorm:"type:varchar(255)" json:"photo1_path,omitempty"`
	Photo2Path  *string   `gorm:"type:varchar(255)" json:"photo2_path,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Guest) TableName() string {
	return "guests"
}
