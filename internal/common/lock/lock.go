// Package lock 提供按键互斥的锁，用于串行化同一房间上的预订写操作
package lock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
)

// Locker 按键加锁
// Lock 在 ctx 取消或超过等待时间时返回错误，成功时返回的 unlock 必须被调用
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RoomKey 房间锁的键
func RoomKey(roomID int64) string {
	return strconv.FormatInt(roomID, 10)
}

// LocalLocker 进程内按键互斥锁
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
	wait  time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker 创建进程内锁，wait <= 0 表示只受 ctx 限制
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*entry),
		wait:  wait,
	}
}

// Lock 获取 key 对应的锁
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, errors.ErrLockTimeout.WithError(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// release 减少引用，无人持有或等待时回收条目
func (l *LocalLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size 当前持有的条目数
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
