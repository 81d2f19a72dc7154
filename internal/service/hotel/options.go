package hotel

import (
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
)

// 默认业务参数
const (
	DefaultMaxGuests     = 3
	DefaultNumberRetries = 5
)

// Option 服务选项
type Option func(*options)

type options struct {
	now           func() time.Time
	maxGuests     int
	numberRetries int
	publisher     StatusPublisher
}

// StatusPublisher 接收房间状态变更，在事务提交后、释放房间锁前调用，实现不得阻塞
type StatusPublisher interface {
	PublishRoomState(roomID int64, st models.RoomState)
}

type nopPublisher struct{}

func (nopPublisher) PublishRoomState(int64, models.RoomState) {}

// WithClock 指定时钟，用于判断“今天”和生成预订号
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxGuests 指定单次入住或预订的最大人数
func WithMaxGuests(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGuests = n
		}
	}
}

// WithNumberRetries 指定预订号冲突时的重试次数
func WithNumberRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.numberRetries = n
		}
	}
}

// WithStatusPublisher 指定房间状态变更的接收方
func WithStatusPublisher(p StatusPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// FromConfig 由入住与预订配置生成选项
func FromConfig(cfg *config.BookingConfig) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithMaxGuests(cfg.MaxGuests),
		WithNumberRetries(cfg.NumberRetries),
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:           time.Now,
		maxGuests:     DefaultMaxGuests,
		numberRetries: DefaultNumberRetries,
		publisher:     nopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// guestCountValid 人数是否在 [1, max] 内
func (o options) guestCountValid(n int) bool {
	return n >= 1 && n <= o.maxGuests
}
