// Package daterange 提供半开区间 [start, end) 的日期范围工具
package daterange

import (
	"fmt"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// Overlaps 判断两个半开区间是否相交
// 一个区间的结束日等于另一个区间的开始日时不相交
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Range 半开日期区间 [From, To)
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// New 创建区间，要求 from < to
func New(from, to time.Time) (Range, error) {
	r := Range{From: from, To: to}
	if !r.Valid() {
		return Range{}, fmt.Errorf("invalid range: %s must be before %s", from.Format(DateLayout), to.Format(DateLayout))
	}
	return r, nil
}

// Valid 区间是否合法
func (r Range) Valid() bool {
	return r.From.Before(r.To)
}

// Overlaps 判断与另一区间是否相交
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.From, r.To, other.From, other.To)
}

// Nights 区间覆盖的天数
func (r Range) Nights() int {
	return int(Date(r.To).Sub(Date(r.From)).Hours() / 24)
}

// String 返回 [from, to) 形式
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.From.Format(DateLayout), r.To.Format(DateLayout))
}

// Date 截断为 UTC 零点，忽略时分秒和时区偏移
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today 返回 now 所在日期
func Today(now time.Time) time.Time {
	return Date(now)
}

// Parse 解析 YYYY-MM-DD
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// MustParse 解析失败时 panic，仅用于测试和常量
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}
