package models

import (
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
)

// RoomType 房型
type RoomType struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (RoomType) TableName() string {
	return "room_types"
}

// Room 房间模型
// 状态和状态窗口只能通过 State/SetState 读写
type Room struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomNo     string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"room_no"`
	RoomTypeID int64      `gorm:"index;not null" json:"room_type_id"`
	Status     RoomStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	StatusFrom *time.Time `gorm:"type:date" json:"status_from,omitempty"`
	StatusTo   *time.Time `gorm:"type:date" json:"status_to,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// State 读取房间状态
// 数据库中的非法组合（如带窗口的 available）按状态本身解释，窗口被忽略
func (r *Room) State() RoomState {
	st := RoomState{status: r.Status}
	if r.Status.Windowed() && r.StatusFrom != nil && r.StatusTo != nil {
		st.window = daterange.Range{
			From: daterange.Date(*r.StatusFrom),
			To:   daterange.Date(*r.StatusTo),
		}
	}
	return st
}

// SetState 写入房间状态，非窗口状态清空窗口
func (r *Room) SetState(st RoomState) {
	r.Status = st.Status()
	r.StatusFrom, r.StatusTo = nil, nil
	if w, ok := st.Window(); ok {
		from, to := w.From, w.To
		r.StatusFrom, r.StatusTo = &from, &to
	}
}

// StateColumns 状态对应的列值，用于 Updates
func (st RoomState) StateColumns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":      st.Status(),
		"status_from": nil,
		"status_to":   nil,
	}
	if w, ok := st.Window(); ok {
		cols["status_from"] = w.From
		cols["status_to"] = w.To
	}
	return cols
}

// RoomStatus 房间状态
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "available"   // 可用
	RoomStatusOccupied    RoomStatus = "occupied"    // 在住
	RoomStatusMaintenance RoomStatus = "maintenance" // 维修
	RoomStatusBlocked     RoomStatus = "blocked"     // 锁房
	RoomStatusDirty       RoomStatus = "dirty"       // 待清洁
	RoomStatusManagement  RoomStatus = "management"  // 管理用房
)

// Valid 是否为已知状态
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusMaintenance,
		RoomStatusBlocked, RoomStatusDirty, RoomStatusManagement:
		return true
	}
	return false
}

// Windowed 该状态是否携带日期窗口
func (s RoomStatus) Windowed() bool {
	return s == RoomStatusOccupied || s == RoomStatusMaintenance || s == RoomStatusBlocked
}

// RoomState 房间状态及其日期窗口
// 零值为 Available；带窗口的状态只能通过构造函数得到合法窗口
type RoomState struct {
	status RoomStatus
	window daterange.Range
}

// StateAvailable 可用
func StateAvailable() RoomState { return RoomState{status: RoomStatusAvailable} }

// StateDirty 待清洁
func StateDirty() RoomState { return RoomState{status: RoomStatusDirty} }

// StateManagement 管理用房
func StateManagement() RoomState { return RoomState{status: RoomStatusManagement} }

// StateOccupied 在住，窗口为入住区间
func StateOccupied(stay daterange.Range) (RoomState, error) {
	return windowed(RoomStatusOccupied, stay)
}

// StateMaintenance 维修
func StateMaintenance(window daterange.Range) (RoomState, error) {
	return windowed(RoomStatusMaintenance, window)
}

// StateBlocked 锁房
func StateBlocked(window daterange.Range) (RoomState, error) {
	return windowed(RoomStatusBlocked, window)
}

func windowed(status RoomStatus, w daterange.Range) (RoomState, error) {
	if !w.Valid() {
		return RoomState{}, errors.ErrRoomStatusWindowBad
	}
	return RoomState{status: status, window: w}, nil
}

// NewRoomState 由外部输入构造状态
// 维修和锁房必须提供窗口；在住必须提供窗口；其他状态忽略窗口
func NewRoomState(status RoomStatus, from, to *time.Time) (RoomState, error) {
	if !status.Valid() {
		return RoomState{}, errors.ErrRoomStatusInvalid
	}
	if !status.Windowed() {
		return RoomState{status: status}, nil
	}
	if from == nil || to == nil {
		return RoomState{}, errors.ErrRoomStatusWindowNeed
	}
	w := daterange.Range{From: daterange.Date(*from), To: daterange.Date(*to)}
	return windowed(status, w)
}

// Status 状态
func (st RoomState) Status() RoomStatus {
	if st.status == "" {
		return RoomStatusAvailable
	}
	return st.status
}

// Window 日期窗口，非窗口状态返回 false
func (st RoomState) Window() (daterange.Range, bool) {
	if !st.Status().Windowed() || !st.window.Valid() {
		return daterange.Range{}, false
	}
	return st.window, true
}

// Blocks 该状态是否使房间在 r 内不可用
// 可用状态不阻塞；带窗口的状态仅在窗口与 r 重叠时阻塞；无窗口的其他状态总是阻塞
func (st RoomState) Blocks(r daterange.Range) bool {
	if st.Status() == RoomStatusAvailable {
		return false
	}
	if w, ok := st.Window(); ok {
		return w.Overlaps(r)
	}
	return true
}

// String 便于日志输出
func (st RoomState) String() string {
	if w, ok := st.Window(); ok {
		return string(st.Status()) + " " + w.String()
	}
	return string(st.Status())
}
