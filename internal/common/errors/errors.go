// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind 错误类别，决定调用方的处理方式
type Kind int

const (
	KindInternal     Kind = iota // 内部错误（存储失败等）
	KindNotFound                 // 引用的记录不存在
	KindBusinessRule             // 违反业务规则
	KindValidation               // 输入结构不合法
	KindConflict                 // 并发写入冲突，调用方应整体重试
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 WithMessage/WithError 派生的错误仍能匹配预定义错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap 包装错误
func Wrap(code int, kind Kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Err:     e.Err,
	}
}

// WithMessagef 格式化修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, KindInternal, "未知错误")
	ErrInvalidParams   = New(1001, KindValidation, "参数错误")
	ErrNotFound        = New(1002, KindNotFound, "资源不存在")
	ErrDatabaseError   = New(1004, KindInternal, "数据库错误")
	ErrCacheError      = New(1005, KindInternal, "缓存错误")
	ErrInternalError   = New(1006, KindInternal, "内部错误")
	ErrConcurrentWrite = New(1011, KindConflict, "并发写入冲突，请重试")
	ErrLockTimeout     = New(1012, KindConflict, "资源繁忙，请稍后重试")
)

// 房间错误码 (8000-8099)
var (
	ErrRoomNotFound         = New(8000, KindNotFound, "房间不存在")
	ErrRoomNotAvailable     = New(8001, KindBusinessRule, "房间在所选日期不可用")
	ErrRoomNoExists         = New(8002, KindBusinessRule, "房间号已存在")
	ErrRoomHasCheckIns      = New(8003, KindBusinessRule, "房间存在入住记录，无法删除")
	ErrRoomTypeNotFound     = New(8004, KindNotFound, "房型不存在")
	ErrRoomStatusInvalid    = New(8005, KindValidation, "无效的房间状态")
	ErrRoomStatusWindowNeed = New(8006, KindValidation, "维护和锁房状态必须指定起止日期")
	ErrRoomStatusWindowBad  = New(8007, KindValidation, "状态结束日期必须晚于开始日期")
	ErrRoomHasReservations  = New(8008, KindBusinessRule, "房间存在预订记录，无法删除")
)

// 入住错误码 (8100-8199)
var (
	ErrCheckInNotFound    = New(8100, KindNotFound, "入住记录不存在")
	ErrCheckInNotActive   = New(8101, KindBusinessRule, "只有在住状态可以办理退房")
	ErrDateRangeInvalid   = New(8102, KindBusinessRule, "离店日期必须晚于入住日期")
	ErrGuestCountInvalid  = New(8103, KindBusinessRule, "入住人数必须在1到3人之间")
	ErrGuestNameRequired  = New(8104, KindValidation, "客人姓名不能为空")
	ErrGuestNotFound      = New(8105, KindNotFound, "客人不存在")
	ErrCheckInRoomInvalid = New(8106, KindBusinessRule, "入住记录与预订的房间不一致")
)

// 预订错误码 (8200-8299)
var (
	ErrReservationNotFound      = New(8200, KindNotFound, "预订不存在")
	ErrReservationStatusError   = New(8201, KindBusinessRule, "预订状态不允许此操作")
	ErrReservationCheckedIn     = New(8202, KindBusinessRule, "预订已入住，无法修改")
	ErrReservationCancelled     = New(8203, KindBusinessRule, "预订已取消")
	ErrReservationNotPending    = New(8204, KindBusinessRule, "只有待确认的预订可以确认")
	ErrReservationPastDate      = New(8205, KindBusinessRule, "入住日期不能早于今天")
	ErrReservationNumberExhaust = New(8206, KindConflict, "预订号生成冲突，请重试")
	ErrReservationContactNeed   = New(8207, KindValidation, "预订人姓名和手机号不能为空")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 返回错误类别，非应用错误视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsBusinessRule 是否为业务规则错误
func IsBusinessRule(err error) bool {
	return err != nil && KindOf(err) == KindBusinessRule
}

// IsValidation 是否为输入校验错误
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsConflict 是否为并发冲突
func IsConflict(err error) bool {
	return err != nil && KindOf(err) == KindConflict
}

// Is 透传标准库 errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
