package models

import (
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
)

// Reservation 预订
type Reservation struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationNo   string            `gorm:"type:varchar(32);uniqueIndex;not null" json:"reservation_no"`
	RoomID          int64             `gorm:"index;not null" json:"room_id"`
	CheckInDate     time.Time         `gorm:"type:date;not null;index" json:"check_in_date"`
	CheckOutDate    time.Time         `gorm:"type:date;not null" json:"check_out_date"`
	GuestCount      int               `gorm:"not null" json:"guest_count"`
	GuestName       string            `gorm:"type:varchar(100);not null" json:"guest_name"`
	GuestEmail      *string           `gorm:"type:varchar(100)" json:"guest_email,omitempty"`
	GuestMobile     string            `gorm:"type:varchar(20);not null" json:"guest_mobile"`
	SpecialRequests *string           `gorm:"type:varchar(500)" json:"special_requests,omitempty"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CheckInID       *int64            `json:"check_in_id,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Room    *Room    `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	CheckIn *CheckIn `gorm:"foreignKey:CheckInID" json:"check_in,omitempty"`
}

// TableName 表名
func (Reservation) TableName() string {
	return "reservations"
}

// Stay 预订日期区间
func (r *Reservation) Stay() daterange.Range {
	return daterange.Range{From: r.CheckInDate, To: r.CheckOutDate}
}

// ReservationStatus 预订状态
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"    // 待确认
	ReservationStatusConfirmed ReservationStatus = "confirmed"  // 已确认
	ReservationStatusCheckedIn ReservationStatus = "checked_in" // 已入住
	ReservationStatusCancelled ReservationStatus = "cancelled"  // 已取消
	ReservationStatusNoShow    ReservationStatus = "no_show"    // 未到店
)

// Valid 是否为已知状态
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn,
		ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// Holding 该状态是否占用房间
func (s ReservationStatus) Holding() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

// Terminal 该状态下预订不可再修改
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusCheckedIn || s == ReservationStatusCancelled
}

// HoldingReservationStatuses 占用房间的预订状态
var HoldingReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
}

// ReservationSequence 每日预订号序列
type ReservationSequence struct {
	Day       string    `gorm:"type:varchar(8);primaryKey" json:"day"` // YYYYMMDD
	LastSeq   int       `gorm:"not null" json:"last_seq"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (ReservationSequence) TableName() string {
	return "reservation_sequences"
}
